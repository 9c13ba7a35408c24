package model

import "errors"

// ブロックAPIのエラー種別
// ハンドラー側で errors.Is により判別してHTTPステータスに変換する
var (
	// ErrMalformedBlockID block_id が "ix#iy" 形式として解析できない
	ErrMalformedBlockID = errors.New("block_idの形式が正しくありません")

	// ErrInvalidIndexType ix・iy に整数以外が指定された
	ErrInvalidIndexType = errors.New("ixとiyは整数である必要があります")

	// ErrRangeTooLarge 要求された範囲のブロック数が上限以上
	ErrRangeTooLarge = errors.New("検索範囲が大きすぎます")

	// ErrDuplicateBlock 同じ (ix, iy) のブロックが既に存在する
	ErrDuplicateBlock = errors.New("同じ座標のブロックが既に存在します")
)
