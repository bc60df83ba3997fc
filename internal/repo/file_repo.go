package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/buildingassets/buildingchat/internal/model"
	"github.com/buildingassets/buildingchat/internal/pkg/dbutil"
	appErr "github.com/buildingassets/buildingchat/internal/pkg/errors"
)

type FileRepo struct {
	db *sql.DB
}

func NewFileRepo(db *sql.DB) *FileRepo {
	return &FileRepo{db: db}
}

func (r *FileRepo) Create(ctx context.Context, doc *model.Document) (int64, error) {
	sqlStr, args := dbutil.Finalize(
		"INSERT INTO file_tracking (org_id, building_id, file_name, file_path, file_type, status, source, ctime) VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id",
		[]interface{}{doc.OrgID, doc.BuildingID, doc.FileName, doc.FilePath, doc.FileType, doc.Status, doc.Source, time.Now().Unix()},
	)
	var id int64
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *FileRepo) GetByID(ctx context.Context, orgID, fileID int64) (*model.Document, error) {
	sqlStr, args := dbutil.Finalize(
		"SELECT id, org_id, building_id, file_name, file_path, file_type, status, source, ctime FROM file_tracking WHERE id=? AND org_id=?",
		[]interface{}{fileID, orgID},
	)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var d model.Document
	if err := row.Scan(&d.ID, &d.OrgID, &d.BuildingID, &d.FileName, &d.FilePath, &d.FileType, &d.Status, &d.Source, &d.Ctime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *FileRepo) ListByIDs(ctx context.Context, orgID, buildingID int64, ids []int64) ([]model.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sqlStr, args, err := sqlx.In(
		"SELECT id, org_id, building_id, file_name, file_path, file_type, status, source, ctime FROM file_tracking WHERE org_id=? AND building_id=? AND id IN (?)",
		orgID, buildingID, ids,
	)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.OrgID, &d.BuildingID, &d.FileName, &d.FilePath, &d.FileType, &d.Status, &d.Source, &d.Ctime); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *FileRepo) UpdateStatus(ctx context.Context, fileID int64, status string) error {
	sqlStr, args, err := builder.BuildUpdate("file_tracking",
		map[string]interface{}{"id": fileID},
		map[string]interface{}{"status": status},
	)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}
