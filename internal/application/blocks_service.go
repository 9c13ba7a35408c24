package application

import (
	"context"
	"fmt"
	"math"
	"time"

	"Place-App/internal/domain/helper"
	"Place-App/internal/domain/model"
	"Place-App/internal/domain/repository"
)

// BlocksService ブロックに関するビジネスロジックを提供するサービス
type BlocksService interface {
	// GetBlock 指定IDのブロックを取得する
	// 未作成のブロックでも metadata が null のブロックを必ず返す
	GetBlock(ctx context.Context, blockID string) (*model.Block, error)

	// GetBlocksInRange 座標範囲内の全ブロックを取得する
	// 範囲の2隅は任意の順序で指定できる。未作成のブロックも埋めて返す
	GetBlocksInRange(ctx context.Context, x1, y1, x2, y2 float64) ([]model.Block, error)

	// PlaceBlock ブロックにメタデータを書き込んで保存する
	PlaceBlock(ctx context.Context, blockID string, metadata *model.BlockMetadata) (*model.Block, error)
}

// blocksServiceImpl BlocksServiceの実装
type blocksServiceImpl struct {
	blocksRepo repository.BlocksRepository
	maxBlocks  int
}

// NewBlocksService BlocksServiceの新しいインスタンスを作成
// maxBlocks はレンジ取得1回あたりのブロック数上限
func NewBlocksService(blocksRepo repository.BlocksRepository, maxBlocks int) BlocksService {
	return &blocksServiceImpl{
		blocksRepo: blocksRepo,
		maxBlocks:  maxBlocks,
	}
}

// blockLookup リポジトリの取得結果
// 永続化済みブロック（found != nil）か、インデックスだけの未作成ブロックかを区別する
type blockLookup struct {
	found *model.BlockInDB
	ix    int
	iy    int
}

// GetBlock 指定IDのブロックを取得する
func (s *blocksServiceImpl) GetBlock(ctx context.Context, blockID string) (*model.Block, error) {
	ix, iy, err := helper.ToBlockIndex(blockID)
	if err != nil {
		return nil, err
	}

	blockInDB, err := s.blocksRepo.GetBlock(ctx, ix, iy)
	if err != nil {
		return nil, fmt.Errorf("ブロックの取得失敗: %w", err)
	}

	return s.enrichBlock(blockLookup{found: blockInDB, ix: ix, iy: iy}), nil
}

// GetBlocksInRange 座標範囲内の全ブロックを取得する
// 出力は ix 昇順・同一 ix 内で iy 昇順に固定される
func (s *blocksServiceImpl) GetBlocksInRange(ctx context.Context, x1, y1, x2, y2 float64) ([]model.Block, error) {
	// 2隅は任意の順序で来るため並べ替える
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}

	minIx := helper.CoordToIndex(x1)
	maxIx := helper.CoordToIndex(x2)
	minIy := helper.CoordToIndex(y1)
	maxIy := helper.CoordToIndex(y2)

	// 上限チェックはデータベースに触れる前に行う
	// ブロック数の乗算が桁あふれするほど広い範囲も上限超過として扱う
	spanX := maxIx - minIx + 1
	spanY := maxIy - minIy + 1
	if spanX <= 0 || spanY <= 0 || spanX > math.MaxInt/spanY || spanX*spanY >= s.maxBlocks {
		return nil, fmt.Errorf("%w (>=%d)", model.ErrRangeTooLarge, s.maxBlocks)
	}
	count := spanX * spanY

	blocksInDB, err := s.blocksRepo.GetBlocksInArea(ctx, minIx, minIy, maxIx, maxIy)
	if err != nil {
		return nil, fmt.Errorf("範囲内ブロックの取得失敗: %w", err)
	}

	byIndex := make(map[[2]int]*model.BlockInDB, len(blocksInDB))
	for i := range blocksInDB {
		b := &blocksInDB[i]
		byIndex[[2]int{b.Ix, b.Iy}] = b
	}

	result := make([]model.Block, 0, count)
	for ix := minIx; ix <= maxIx; ix++ {
		for iy := minIy; iy <= maxIy; iy++ {
			lookup := blockLookup{found: byIndex[[2]int{ix, iy}], ix: ix, iy: iy}
			result = append(result, *s.enrichBlock(lookup))
		}
	}

	return result, nil
}

// PlaceBlock ブロックにメタデータを書き込んで保存する
// 未作成なら新規作成、作成済みならメタデータを丸ごと置き換える
func (s *blocksServiceImpl) PlaceBlock(ctx context.Context, blockID string, metadata *model.BlockMetadata) (*model.Block, error) {
	ix, iy, err := helper.ToBlockIndex(blockID)
	if err != nil {
		return nil, err
	}

	blockInDB, err := s.blocksRepo.GetBlock(ctx, ix, iy)
	if err != nil {
		return nil, fmt.Errorf("ブロックの取得失敗: %w", err)
	}

	if blockInDB == nil {
		newBlock := &model.BlockInDB{
			Ix:         ix,
			Iy:         iy,
			CreateTime: time.Now().UTC(),
			Metadata:   metadata,
		}
		// 同時作成の競合は一意制約違反としてそのまま返す
		if err := s.blocksRepo.CreateBlock(ctx, newBlock); err != nil {
			return nil, fmt.Errorf("ブロックの作成失敗: %w", err)
		}
	} else {
		if _, err := s.blocksRepo.UpdateBlockMetadata(ctx, ix, iy, metadata); err != nil {
			return nil, fmt.Errorf("ブロックメタデータの更新失敗: %w", err)
		}
	}

	// 保存後の状態を取り直して返す
	return s.GetBlock(ctx, blockID)
}

// enrichBlock 取得結果から完全なBlockモデルを作成する
// 単体取得とレンジ取得で共有する唯一の変換経路
func (s *blocksServiceImpl) enrichBlock(lookup blockLookup) *model.Block {
	blockInDB := lookup.found
	if blockInDB == nil {
		// 未作成ブロックは保存せず、その場でデフォルトを合成する
		blockInDB = &model.BlockInDB{
			Ix:         lookup.ix,
			Iy:         lookup.iy,
			CreateTime: time.Now().UTC(),
			Metadata:   nil,
		}
	}

	bound := helper.BlockBound(blockInDB.Ix, blockInDB.Iy)
	origin := helper.BlockOrigin(blockInDB.Ix, blockInDB.Iy)
	latMin := origin.Lat()
	lonMin := origin.Lon()

	return &model.Block{
		Ix:             blockInDB.Ix,
		Iy:             blockInDB.Iy,
		CreateTime:     blockInDB.CreateTime,
		Metadata:       blockInDB.Metadata,
		Lon:            [2]float64{bound.Min.Lon(), bound.Max.Lon()},
		Lat:            [2]float64{bound.Min.Lat(), bound.Max.Lat()},
		BlockID:        helper.ToBlockID(blockInDB.Ix, blockInDB.Iy),
		VisibleNameDD:  helper.FormatDD(latMin, lonMin),
		VisibleNameDMS: helper.FormatDMS(latMin, lonMin),
	}
}
