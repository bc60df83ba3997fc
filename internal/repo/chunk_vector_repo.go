package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/buildingassets/buildingchat/internal/model"
	"github.com/buildingassets/buildingchat/internal/pkg/dbutil"
)

// ChunkVectorRepo keeps the relational shadow copy of every indexed
// chunk for auditability. A batch replaces the file's previous rows so
// re-ingesting never leaves a mixed chunk set.
type ChunkVectorRepo struct {
	db *sql.DB
}

func NewChunkVectorRepo(db *sql.DB) *ChunkVectorRepo {
	return &ChunkVectorRepo{db: db}
}

func (r *ChunkVectorRepo) SaveBatch(ctx context.Context, items []model.ChunkVector) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.saveBatchTx(ctx, tx, items); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *ChunkVectorRepo) saveBatchTx(ctx context.Context, tx *sql.Tx, items []model.ChunkVector) error {
	delStr, delArgs := dbutil.Finalize(
		"DELETE FROM chunk_vectors WHERE file_id=?",
		[]interface{}{items[0].FileID},
	)
	if _, err := tx.ExecContext(ctx, delStr, delArgs...); err != nil {
		return err
	}
	insStr, _ := dbutil.Finalize(
		"INSERT INTO chunk_vectors (file_id, point_id, embedding, chunk_index, page_number, word_count, chunk_size, chunk_overlap, chunk_text, custom_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		make([]interface{}, 10),
	)
	stmt, err := tx.PrepareContext(ctx, insStr)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, item := range items {
		_, err := stmt.ExecContext(ctx,
			item.FileID,
			item.PointID,
			pgvector.NewVector(item.Embedding),
			item.ChunkIndex,
			item.PageNumber,
			item.WordCount,
			item.ChunkSize,
			item.Overlap,
			item.Text,
			item.CustomID,
		)
		if dbutil.IsConflict(err) {
			return fmt.Errorf("duplicate custom_id %s: %w", item.CustomID, err)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
