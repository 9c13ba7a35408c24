package helper

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"Place-App/internal/domain/model"
)

// CoordToIndex 緯度経度の浮動小数点数をブロックインデックスに変換する
// 例: 0.0001 -> 1, 1.0 -> 10000
// ゼロ方向への切り捨て。四捨五入に変えると逆変換の恒等性が壊れる
func CoordToIndex(value float64) int {
	return int(value * model.Scale)
}

// IndexToCoord ブロックインデックスを緯度経度に戻す
// 例: 1 -> 0.0001, 10000 -> 1.0
func IndexToCoord(index int) float64 {
	return float64(index) * model.Step
}

// blockIDDigits ブロックID各成分の桁数（Scale=10000なら5桁）
var blockIDDigits = len(strconv.Itoa(model.Scale))

// ToBlockID ブロック座標を固定桁数の "ix#iy" 形式のIDに変換する
// 例: (1, 1) -> "00001#00001"
func ToBlockID(ix, iy int) string {
	return fmt.Sprintf("%0*d#%0*d", blockIDDigits, ix, blockIDDigits, iy)
}

// ToBlockIndex "ix#iy" 形式のブロックIDを座標の組に変換する
// 形式不正は model.ErrMalformedBlockID、整数以外は model.ErrInvalidIndexType
func ToBlockIndex(blockID string) (int, int, error) {
	parts := strings.Split(blockID, "#")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", model.ErrMalformedBlockID, blockID)
	}
	ix, err := parseIndex(parts[0])
	if err != nil {
		return 0, 0, err
	}
	iy, err := parseIndex(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return ix, iy, nil
}

func parseIndex(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err == nil {
		return v, nil
	}
	// "1.5" のような数値だが整数でないものは型エラーとして区別する
	if _, ferr := strconv.ParseFloat(s, 64); ferr == nil {
		return 0, fmt.Errorf("%w: %q", model.ErrInvalidIndexType, s)
	}
	return 0, fmt.Errorf("%w: %q", model.ErrMalformedBlockID, s)
}

// FormatDD 小数度形式の表示名を返す
// 例: "Lat 0.0001°, Lon 0.0001°"
func FormatDD(lat, lon float64) string {
	return fmt.Sprintf("Lat %.4f°, Lon %.4f°", lat, lon)
}

// FormatDMS 度分秒形式の表示名を返す
// 例: "0°0′0.36″N, 0°0′0.36″E"
// 緯度は0以上をN、経度は0以上をEとする
func FormatDMS(lat, lon float64) string {
	return toDMS(lat, true) + ", " + toDMS(lon, false)
}

func toDMS(value float64, isLat bool) string {
	abs := math.Abs(value)
	deg := int(abs)
	minutesFull := (abs - float64(deg)) * 60
	minutes := int(minutesFull)
	seconds := (minutesFull - float64(minutes)) * 60

	// 59.999…秒が不正な60.00にならないよう、丸めてから繰り上げる
	seconds = math.Round(seconds*100) / 100
	if seconds >= 60 {
		seconds -= 60
		minutes++
	}
	if minutes >= 60 {
		minutes -= 60
		deg++
	}

	var hemi string
	if isLat {
		hemi = "N"
		if value < 0 {
			hemi = "S"
		}
	} else {
		hemi = "E"
		if value < 0 {
			hemi = "W"
		}
	}
	return fmt.Sprintf("%d°%d′%.2f″%s", deg, minutes, seconds, hemi)
}
