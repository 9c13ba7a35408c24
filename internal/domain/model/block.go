package model

import "time"

// BlockMetadata ブロックに書き込まれる表示用メタデータ
// 全フィールド任意。更新時はフィールド単位でマージせず、値全体を置き換える
type BlockMetadata struct {
	Author   string `json:"author,omitempty" firestore:"author,omitempty"`
	AuthorIP string `json:"author_ip,omitempty" firestore:"author_ip,omitempty"`
	Color    string `json:"color,omitempty" firestore:"color,omitempty"`
}

// BlockInDB データベースに永続化されるブロック
// (ix, iy) の組が一意キー。create_time は初回作成時のみ設定され、以後変更されない
type BlockInDB struct {
	Ix         int            `json:"ix" firestore:"ix"`
	Iy         int            `json:"iy" firestore:"iy"`
	CreateTime time.Time      `json:"create_time" firestore:"create_time"`
	Metadata   *BlockMetadata `json:"metadata" firestore:"metadata"`
}

// Block APIレスポンス用の完全なブロックモデル
// 永続化されない派生ビュー。未作成のブロックでも必ず生成される（metadata は null になる）
type Block struct {
	Ix             int            `json:"ix"`
	Iy             int            `json:"iy"`
	CreateTime     time.Time      `json:"create_time"`
	Metadata       *BlockMetadata `json:"metadata"`
	Lon            [2]float64     `json:"lon"`
	Lat            [2]float64     `json:"lat"`
	BlockID        string         `json:"block_id"`
	VisibleNameDD  string         `json:"visible_name_dd"`
	VisibleNameDMS string         `json:"visible_name_dms"`
}
