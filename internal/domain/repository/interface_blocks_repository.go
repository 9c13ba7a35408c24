package repository

import (
	"context"

	"Place-App/internal/domain/model"
)

// BlocksRepository ブロックの永続化を担うリポジトリ
// (ix, iy) の組を一意キーとして扱う
type BlocksRepository interface {
	// GetBlock 座標でブロックを1件取得する。存在しない場合は (nil, nil) を返す
	GetBlock(ctx context.Context, ix, iy int) (*model.BlockInDB, error)

	// CreateBlock ブロックを新規作成する
	// 同じ (ix, iy) が既に存在する場合は model.ErrDuplicateBlock を返す
	CreateBlock(ctx context.Context, block *model.BlockInDB) error

	// UpdateBlockMetadata ブロックのメタデータを丸ごと置き換える
	// create_time は変更しない。対象が存在しない場合は (nil, nil) を返す
	UpdateBlockMetadata(ctx context.Context, ix, iy int, metadata *model.BlockMetadata) (*model.BlockInDB, error)

	// GetBlocksInArea 指定範囲（両端を含む矩形）内の永続化済みブロックを取得する
	// 返却順序は保証されない
	GetBlocksInArea(ctx context.Context, minIx, minIy, maxIx, maxIy int) ([]model.BlockInDB, error)
}
