package model

// 座標グリッドの定数
// 緯度経度を0.0001度 × 0.0001度の最小単位に量子化する
// 左上を原点(0,0)とし、経度は右方向、緯度は下方向に増加する
// 赤道付近では1ブロックの一辺は約11.132メートル（約124平方メートル）
const (
	// Step 量子化ステップ（度）
	Step = 0.0001
	// Scale 1 / Step。ブロックインデックスは座標のScale倍
	Scale = 10000
)

// BlocksInRangeMaximumDefault レンジ取得1回あたりのブロック数上限のデフォルト値
// API_BLOCKS_IN_RANGE_MAXIMUM 環境変数で起動時に上書き可能
const BlocksInRangeMaximumDefault = 1000000

// DefaultAllowedColors デフォルトのカラーパレット
// API_ALLOWED_COLORS 環境変数（カンマ区切り）で起動時に上書き可能
var DefaultAllowedColors = []string{
	"#000000", "#ffffff", "#0000ff", "#ff0000", "#00ff00", "#ffff00", "#ff00ff", "#800080", "#808000", "#808080",
	"#c0c0c0", "#800000", "#ff00ff", "#00ffff", "#808080", "#c0c0c0", "#800080", "#ff0000", "#00ff00", "#ffff00",
	"#000000", "#ffffff", "#0000ff", "#ff0000", "#00ff00", "#ffff00", "#ff00ff", "#800080", "#808000", "#808080",
}
