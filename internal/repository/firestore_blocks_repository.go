package repository

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"Place-App/internal/domain/helper"
	"Place-App/internal/domain/model"
	"Place-App/internal/domain/repository"
)

// blocksCollection Firestoreのブロックコレクション名
const blocksCollection = "blocks"

// FirestoreBlocksRepository Firestoreを使用したブロックリポジトリ
// ドキュメントIDに正規形のブロックID（"ix#iy"）を使うことで
// (ix, iy) の一意制約を Create のAlreadyExistsとして表現する
type FirestoreBlocksRepository struct {
	client *firestore.Client
}

// NewFirestoreBlocksRepository 新しいFirestoreBlocksRepositoryインスタンスを作成
func NewFirestoreBlocksRepository(client *firestore.Client) repository.BlocksRepository {
	return &FirestoreBlocksRepository{
		client: client,
	}
}

// GetBlock 座標でブロックを1件取得する。存在しない場合は (nil, nil)
func (r *FirestoreBlocksRepository) GetBlock(ctx context.Context, ix, iy int) (*model.BlockInDB, error) {
	doc, err := r.client.Collection(blocksCollection).Doc(helper.ToBlockID(ix, iy)).Get(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "not found") {
			return nil, nil
		}
		return nil, fmt.Errorf("ブロックデータの取得失敗: %w", err)
	}

	var block model.BlockInDB
	if err := doc.DataTo(&block); err != nil {
		return nil, fmt.Errorf("ブロックデータの変換失敗: %w", err)
	}

	return &block, nil
}

// CreateBlock ブロックを新規作成する。重複時は model.ErrDuplicateBlock
func (r *FirestoreBlocksRepository) CreateBlock(ctx context.Context, block *model.BlockInDB) error {
	docID := helper.ToBlockID(block.Ix, block.Iy)
	_, err := r.client.Collection(blocksCollection).Doc(docID).Create(ctx, block)
	if err != nil {
		if strings.Contains(err.Error(), "AlreadyExists") || strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("%w: %s", model.ErrDuplicateBlock, docID)
		}
		return fmt.Errorf("ブロックデータの作成失敗: %w", err)
	}

	return nil
}

// UpdateBlockMetadata ブロックのメタデータを丸ごと置き換える
// 対象が存在しない場合は (nil, nil)
func (r *FirestoreBlocksRepository) UpdateBlockMetadata(ctx context.Context, ix, iy int, metadata *model.BlockMetadata) (*model.BlockInDB, error) {
	docID := helper.ToBlockID(ix, iy)
	_, err := r.client.Collection(blocksCollection).Doc(docID).Update(ctx, []firestore.Update{
		{Path: "metadata", Value: metadata},
	})
	if err != nil {
		if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "not found") {
			return nil, nil
		}
		return nil, fmt.Errorf("ブロックメタデータの更新失敗: %w", err)
	}

	return r.GetBlock(ctx, ix, iy)
}

// GetBlocksInArea 指定範囲（両端を含む）内の永続化済みブロックを取得する
func (r *FirestoreBlocksRepository) GetBlocksInArea(ctx context.Context, minIx, minIy, maxIx, maxIy int) ([]model.BlockInDB, error) {
	query := r.client.Collection(blocksCollection).
		Where("ix", ">=", minIx).
		Where("ix", "<=", maxIx).
		Where("iy", ">=", minIy).
		Where("iy", "<=", maxIy)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var blocks []model.BlockInDB
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("範囲内ブロックデータの取得失敗: %w", err)
		}

		var block model.BlockInDB
		if err := doc.DataTo(&block); err != nil {
			return nil, fmt.Errorf("ブロックデータの変換失敗: %w", err)
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}
