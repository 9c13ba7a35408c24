package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Place-App/internal/domain/helper"
	"Place-App/internal/domain/model"
)

// memoryBlocksRepository テスト用のインメモリリポジトリ
type memoryBlocksRepository struct {
	blocks    map[[2]int]model.BlockInDB
	createErr error
	scanCalls int
}

func newMemoryBlocksRepository() *memoryBlocksRepository {
	return &memoryBlocksRepository{blocks: make(map[[2]int]model.BlockInDB)}
}

func (r *memoryBlocksRepository) GetBlock(ctx context.Context, ix, iy int) (*model.BlockInDB, error) {
	block, ok := r.blocks[[2]int{ix, iy}]
	if !ok {
		return nil, nil
	}
	return &block, nil
}

func (r *memoryBlocksRepository) CreateBlock(ctx context.Context, block *model.BlockInDB) error {
	if r.createErr != nil {
		return r.createErr
	}
	key := [2]int{block.Ix, block.Iy}
	if _, ok := r.blocks[key]; ok {
		return model.ErrDuplicateBlock
	}
	r.blocks[key] = *block
	return nil
}

func (r *memoryBlocksRepository) UpdateBlockMetadata(ctx context.Context, ix, iy int, metadata *model.BlockMetadata) (*model.BlockInDB, error) {
	key := [2]int{ix, iy}
	block, ok := r.blocks[key]
	if !ok {
		return nil, nil
	}
	block.Metadata = metadata
	r.blocks[key] = block
	return &block, nil
}

func (r *memoryBlocksRepository) GetBlocksInArea(ctx context.Context, minIx, minIy, maxIx, maxIy int) ([]model.BlockInDB, error) {
	r.scanCalls++
	var result []model.BlockInDB
	for key, block := range r.blocks {
		if key[0] >= minIx && key[0] <= maxIx && key[1] >= minIy && key[1] <= maxIy {
			result = append(result, block)
		}
	}
	return result, nil
}

func TestGetBlockReturnsDefaultForMissingBlock(t *testing.T) {
	service := NewBlocksService(newMemoryBlocksRepository(), model.BlocksInRangeMaximumDefault)

	block, err := service.GetBlock(context.Background(), "00123#00045")
	require.NoError(t, err)

	assert.Equal(t, 123, block.Ix)
	assert.Equal(t, 45, block.Iy)
	assert.Nil(t, block.Metadata)
	assert.Equal(t, "00123#00045", block.BlockID)
	assert.Equal(t, [2]float64{helper.IndexToCoord(123), helper.IndexToCoord(124)}, block.Lon)
	assert.Equal(t, [2]float64{helper.IndexToCoord(45), helper.IndexToCoord(46)}, block.Lat)
	assert.False(t, block.CreateTime.IsZero())
}

func TestGetBlockMalformedID(t *testing.T) {
	service := NewBlocksService(newMemoryBlocksRepository(), model.BlocksInRangeMaximumDefault)

	_, err := service.GetBlock(context.Background(), "not-a-block-id")
	assert.ErrorIs(t, err, model.ErrMalformedBlockID)

	_, err = service.GetBlock(context.Background(), "1.5#2")
	assert.ErrorIs(t, err, model.ErrInvalidIndexType)
}

func TestPlaceBlockCreatesThenReplacesMetadata(t *testing.T) {
	repo := newMemoryBlocksRepository()
	service := NewBlocksService(repo, model.BlocksInRangeMaximumDefault)
	ctx := context.Background()

	first, err := service.PlaceBlock(ctx, "00001#00001", &model.BlockMetadata{
		Author:   "a",
		AuthorIP: "192.168.1.1",
		Color:    "#112233",
	})
	require.NoError(t, err)
	require.NotNil(t, first.Metadata)
	assert.Equal(t, "a", first.Metadata.Author)
	assert.Equal(t, "#112233", first.Metadata.Color)

	// 2回目はメタデータを丸ごと置き換える。author_ipもマージされず消える
	second, err := service.PlaceBlock(ctx, "00001#00001", &model.BlockMetadata{
		Author: "b",
		Color:  "#445566",
	})
	require.NoError(t, err)
	require.NotNil(t, second.Metadata)
	assert.Equal(t, "b", second.Metadata.Author)
	assert.Equal(t, "#445566", second.Metadata.Color)
	assert.Empty(t, second.Metadata.AuthorIP)

	// create_time は初回作成時のまま
	assert.True(t, second.CreateTime.Equal(first.CreateTime))
}

func TestPlaceBlockScenario(t *testing.T) {
	service := NewBlocksService(newMemoryBlocksRepository(), model.BlocksInRangeMaximumDefault)

	block, err := service.PlaceBlock(context.Background(), "00001#00001", &model.BlockMetadata{
		Author: "demo_user",
		Color:  "#3498db",
	})
	require.NoError(t, err)

	assert.Equal(t, "00001#00001", block.BlockID)
	assert.InDelta(t, 0.0001, block.Lon[0], 1e-12)
	assert.InDelta(t, 0.0002, block.Lon[1], 1e-12)
	assert.InDelta(t, 0.0001, block.Lat[0], 1e-12)
	assert.InDelta(t, 0.0002, block.Lat[1], 1e-12)
	assert.Equal(t, "Lat 0.0001°, Lon 0.0001°", block.VisibleNameDD)
	assert.Equal(t, "0°0′0.36″N, 0°0′0.36″E", block.VisibleNameDMS)
}

func TestPlaceBlockCreateRaceSurfacesConflict(t *testing.T) {
	repo := newMemoryBlocksRepository()
	// 取得時点では未作成だが、作成時に別リクエストが先行した状況
	repo.createErr = model.ErrDuplicateBlock
	service := NewBlocksService(repo, model.BlocksInRangeMaximumDefault)

	_, err := service.PlaceBlock(context.Background(), "00001#00001", &model.BlockMetadata{Author: "a"})
	assert.ErrorIs(t, err, model.ErrDuplicateBlock)
}

func TestGetBlocksInRangeOrderAndGapFill(t *testing.T) {
	repo := newMemoryBlocksRepository()
	service := NewBlocksService(repo, model.BlocksInRangeMaximumDefault)
	ctx := context.Background()

	// (0,1) だけ永続化しておく
	_, err := service.PlaceBlock(ctx, "00000#00001", &model.BlockMetadata{Author: "a", Color: "#112233"})
	require.NoError(t, err)

	blocks, err := service.GetBlocksInRange(ctx, 0.0, 0.0, 0.0001, 0.0001)
	require.NoError(t, err)
	require.Len(t, blocks, 4)

	// ix昇順・同一ix内でiy昇順
	wantOrder := [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	for i, want := range wantOrder {
		assert.Equal(t, want[0], blocks[i].Ix, "blocks[%d].ix", i)
		assert.Equal(t, want[1], blocks[i].Iy, "blocks[%d].iy", i)
	}

	// 永続化済みのブロックだけメタデータを持ち、残りはデフォルトで埋まる
	require.NotNil(t, blocks[1].Metadata)
	assert.Equal(t, "a", blocks[1].Metadata.Author)
	assert.Nil(t, blocks[0].Metadata)
	assert.Nil(t, blocks[2].Metadata)
	assert.Nil(t, blocks[3].Metadata)
}

func TestGetBlocksInRangeAcceptsAnyCornerOrder(t *testing.T) {
	service := NewBlocksService(newMemoryBlocksRepository(), model.BlocksInRangeMaximumDefault)
	ctx := context.Background()

	sorted, err := service.GetBlocksInRange(ctx, 0.0, 0.0, 0.0001, 0.0001)
	require.NoError(t, err)
	reversed, err := service.GetBlocksInRange(ctx, 0.0001, 0.0001, 0.0, 0.0)
	require.NoError(t, err)

	require.Len(t, reversed, len(sorted))
	for i := range sorted {
		assert.Equal(t, sorted[i].BlockID, reversed[i].BlockID)
	}
}

func TestGetBlocksInRangeTooLarge(t *testing.T) {
	ctx := context.Background()

	// 2×2の範囲: 上限ちょうどは拒否、上限未満は成功
	repo := newMemoryBlocksRepository()
	tooSmallLimit := NewBlocksService(repo, 4)
	_, err := tooSmallLimit.GetBlocksInRange(ctx, 0.0, 0.0, 0.0001, 0.0001)
	assert.ErrorIs(t, err, model.ErrRangeTooLarge)
	// 拒否時はデータベースに触れない
	assert.Zero(t, repo.scanCalls)

	justEnough := NewBlocksService(newMemoryBlocksRepository(), 5)
	blocks, err := justEnough.GetBlocksInRange(ctx, 0.0, 0.0, 0.0001, 0.0001)
	require.NoError(t, err)
	assert.Len(t, blocks, 4)
}

func TestGetBlocksInRangeRejectsHugeRange(t *testing.T) {
	ctx := context.Background()

	// ブロック数の乗算が桁あふれするほど広い範囲でも、
	// パニックせず上限超過として拒否し、データベースに触れない
	repo := newMemoryBlocksRepository()
	service := NewBlocksService(repo, model.BlocksInRangeMaximumDefault)

	_, err := service.GetBlocksInRange(ctx, -200000, -200000, 200000, 200000)
	assert.ErrorIs(t, err, model.ErrRangeTooLarge)
	assert.Zero(t, repo.scanCalls)

	// 片方の軸だけで上限を超える細長い範囲も同様に拒否する
	_, err = service.GetBlocksInRange(ctx, 0.0, 0.0, 150.0, 0.0)
	assert.ErrorIs(t, err, model.ErrRangeTooLarge)
	assert.Zero(t, repo.scanCalls)
}

func TestGetBlocksInRangeDefaultCreateTimeIsFresh(t *testing.T) {
	service := NewBlocksService(newMemoryBlocksRepository(), model.BlocksInRangeMaximumDefault)

	before := time.Now().UTC()
	blocks, err := service.GetBlocksInRange(context.Background(), 0.0, 0.0, 0.0001, 0.0001)
	require.NoError(t, err)

	for _, block := range blocks {
		assert.False(t, block.CreateTime.Before(before))
	}
}
