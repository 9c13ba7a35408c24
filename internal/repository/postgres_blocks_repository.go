package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"Place-App/internal/domain/model"
	"Place-App/internal/infrastructure/database"
)

// pqUniqueViolation PostgreSQLの一意制約違反のエラーコード
const pqUniqueViolation = "23505"

// PostgresBlocksRepository PostgreSQL直接接続を使用したブロックリポジトリ
// blocks テーブルの (ix, iy) 複合主キーで一意性を保証する
type PostgresBlocksRepository struct {
	client *database.PostgreSQLClient
}

// NewPostgresBlocksRepository 新しいPostgresBlocksRepositoryインスタンスを作成
func NewPostgresBlocksRepository(client *database.PostgreSQLClient) *PostgresBlocksRepository {
	return &PostgresBlocksRepository{
		client: client,
	}
}

// EnsureSchema blocksテーブルを作成する（起動時に1回呼ぶ）
func (r *PostgresBlocksRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.client.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS blocks (
			ix          INTEGER     NOT NULL,
			iy          INTEGER     NOT NULL,
			create_time TIMESTAMPTZ NOT NULL,
			metadata    JSONB,
			PRIMARY KEY (ix, iy)
		)`)
	if err != nil {
		return fmt.Errorf("blocksテーブルの作成失敗: %w", err)
	}
	return nil
}

// GetBlock 座標でブロックを1件取得する。存在しない場合は (nil, nil)
func (r *PostgresBlocksRepository) GetBlock(ctx context.Context, ix, iy int) (*model.BlockInDB, error) {
	row := r.client.DB.QueryRowContext(ctx,
		`SELECT ix, iy, create_time, metadata FROM blocks WHERE ix = $1 AND iy = $2`, ix, iy)

	block, err := scanBlock(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ブロックデータの取得失敗: %w", err)
	}

	return block, nil
}

// CreateBlock ブロックを新規作成する。重複時は model.ErrDuplicateBlock
func (r *PostgresBlocksRepository) CreateBlock(ctx context.Context, block *model.BlockInDB) error {
	metadataJSON, err := marshalMetadata(block.Metadata)
	if err != nil {
		return err
	}

	_, err = r.client.DB.ExecContext(ctx,
		`INSERT INTO blocks (ix, iy, create_time, metadata) VALUES ($1, $2, $3, $4)`,
		block.Ix, block.Iy, block.CreateTime, metadataJSON)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pqUniqueViolation {
			return fmt.Errorf("%w: (%d, %d)", model.ErrDuplicateBlock, block.Ix, block.Iy)
		}
		return fmt.Errorf("ブロックデータの作成失敗: %w", err)
	}

	return nil
}

// UpdateBlockMetadata ブロックのメタデータを丸ごと置き換える
// 対象が存在しない場合は (nil, nil)
func (r *PostgresBlocksRepository) UpdateBlockMetadata(ctx context.Context, ix, iy int, metadata *model.BlockMetadata) (*model.BlockInDB, error) {
	metadataJSON, err := marshalMetadata(metadata)
	if err != nil {
		return nil, err
	}

	result, err := r.client.DB.ExecContext(ctx,
		`UPDATE blocks SET metadata = $3 WHERE ix = $1 AND iy = $2`, ix, iy, metadataJSON)
	if err != nil {
		return nil, fmt.Errorf("ブロックメタデータの更新失敗: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("ブロックメタデータの更新結果確認失敗: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	return r.GetBlock(ctx, ix, iy)
}

// GetBlocksInArea 指定範囲（両端を含む）内の永続化済みブロックを取得する
func (r *PostgresBlocksRepository) GetBlocksInArea(ctx context.Context, minIx, minIy, maxIx, maxIy int) ([]model.BlockInDB, error) {
	rows, err := r.client.DB.QueryContext(ctx,
		`SELECT ix, iy, create_time, metadata FROM blocks
		 WHERE ix BETWEEN $1 AND $2 AND iy BETWEEN $3 AND $4`,
		minIx, maxIx, minIy, maxIy)
	if err != nil {
		return nil, fmt.Errorf("範囲内ブロックデータの取得失敗: %w", err)
	}
	defer rows.Close()

	var blocks []model.BlockInDB
	for rows.Next() {
		block, err := scanBlock(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("ブロックデータの変換失敗: %w", err)
		}
		blocks = append(blocks, *block)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("範囲内ブロックデータの読み取り失敗: %w", err)
	}

	return blocks, nil
}

// scanBlock SELECT結果の1行をBlockInDBに変換する
func scanBlock(scan func(dest ...any) error) (*model.BlockInDB, error) {
	var block model.BlockInDB
	var metadataJSON []byte

	if err := scan(&block.Ix, &block.Iy, &block.CreateTime, &metadataJSON); err != nil {
		return nil, err
	}

	if metadataJSON != nil {
		var metadata model.BlockMetadata
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			return nil, fmt.Errorf("metadata JSONBパースエラー: %w", err)
		}
		block.Metadata = &metadata
	}

	return &block, nil
}

// marshalMetadata メタデータをJSONB用のバイト列に変換する。nilはNULLとして扱う
func marshalMetadata(metadata *model.BlockMetadata) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("metadataのJSONマーシャル失敗: %w", err)
	}
	return data, nil
}
