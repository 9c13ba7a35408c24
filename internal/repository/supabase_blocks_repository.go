package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"Place-App/internal/database"
	"Place-App/internal/domain/model"
	"Place-App/internal/domain/repository"
)

// SupabaseBlocksRepository Supabase（PostgREST）経由のブロックリポジトリ
// blocks テーブルは PostgresBlocksRepository と共有する
type SupabaseBlocksRepository struct {
	client *database.SupabaseClient
}

// NewSupabaseBlocksRepository 新しいSupabaseBlocksRepositoryインスタンスを作成
func NewSupabaseBlocksRepository(client *database.SupabaseClient) repository.BlocksRepository {
	return &SupabaseBlocksRepository{
		client: client,
	}
}

// GetBlock 座標でブロックを1件取得する。存在しない場合は (nil, nil)
func (r *SupabaseBlocksRepository) GetBlock(ctx context.Context, ix, iy int) (*model.BlockInDB, error) {
	var blocks []model.BlockInDB
	data, count, err := r.client.GetClient().From("blocks").Select("*", "exact", false).
		Eq("ix", strconv.Itoa(ix)).
		Eq("iy", strconv.Itoa(iy)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("ブロックデータの取得失敗: %w", err)
	}
	_ = count

	if err := json.Unmarshal([]byte(data), &blocks); err != nil {
		return nil, fmt.Errorf("ブロックデータのJSONアンマーシャル失敗: %w", err)
	}

	if len(blocks) == 0 {
		return nil, nil
	}

	return &blocks[0], nil
}

// CreateBlock ブロックを新規作成する。重複時は model.ErrDuplicateBlock
func (r *SupabaseBlocksRepository) CreateBlock(ctx context.Context, block *model.BlockInDB) error {
	data, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("ブロックデータのJSONマーシャル失敗: %w", err)
	}

	_, _, err = r.client.GetClient().From("blocks").Insert(string(data), false, "", "", "").Execute()
	if err != nil {
		// PostgRESTは一意制約違反をコード23505で返す
		if strings.Contains(err.Error(), "23505") || strings.Contains(err.Error(), "duplicate key") {
			return fmt.Errorf("%w: (%d, %d)", model.ErrDuplicateBlock, block.Ix, block.Iy)
		}
		return fmt.Errorf("ブロックデータの作成失敗: %w", err)
	}

	return nil
}

// UpdateBlockMetadata ブロックのメタデータを丸ごと置き換える
// 対象が存在しない場合は (nil, nil)
func (r *SupabaseBlocksRepository) UpdateBlockMetadata(ctx context.Context, ix, iy int, metadata *model.BlockMetadata) (*model.BlockInDB, error) {
	payload, err := json.Marshal(map[string]*model.BlockMetadata{"metadata": metadata})
	if err != nil {
		return nil, fmt.Errorf("metadataのJSONマーシャル失敗: %w", err)
	}

	_, _, err = r.client.GetClient().From("blocks").Update(string(payload), "", "").
		Eq("ix", strconv.Itoa(ix)).
		Eq("iy", strconv.Itoa(iy)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("ブロックメタデータの更新失敗: %w", err)
	}

	// 対象が存在しなければ更新は空振りし、取り直しで (nil, nil) になる
	return r.GetBlock(ctx, ix, iy)
}

// GetBlocksInArea 指定範囲（両端を含む）内の永続化済みブロックを取得する
func (r *SupabaseBlocksRepository) GetBlocksInArea(ctx context.Context, minIx, minIy, maxIx, maxIy int) ([]model.BlockInDB, error) {
	var blocks []model.BlockInDB
	data, count, err := r.client.GetClient().From("blocks").Select("*", "exact", false).
		Gte("ix", strconv.Itoa(minIx)).
		Lte("ix", strconv.Itoa(maxIx)).
		Gte("iy", strconv.Itoa(minIy)).
		Lte("iy", strconv.Itoa(maxIy)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("範囲内ブロックデータの取得失敗: %w", err)
	}
	_ = count

	if err := json.Unmarshal([]byte(data), &blocks); err != nil {
		return nil, fmt.Errorf("ブロックデータのJSONアンマーシャル失敗: %w", err)
	}

	return blocks, nil
}
