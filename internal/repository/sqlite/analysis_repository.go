package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/tejaspavanb/DeepFake/internal/model"
	"github.com/tejaspavanb/DeepFake/internal/repository"
)

// AnalysisRepository implements repository.AnalysisRepository for SQLite.
type AnalysisRepository struct {
	db *DB
}

var _ repository.AnalysisRepository = (*AnalysisRepository)(nil)

// NewAnalysisRepository creates a new SQLite analysis repository.
func NewAnalysisRepository(db *DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

const analysisColumns = `id, upload_id, kind, filename, stored_name, filepath, filesize, mime_type,
	verdict, confidence, real_frames, fake_frames, hash, analyzer, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(s scanner) (*model.Analysis, error) {
	var a model.Analysis
	err := s.Scan(&a.ID, &a.UploadID, &a.Kind, &a.Filename, &a.StoredName, &a.FilePath, &a.FileSize, &a.MIMEType,
		&a.Verdict, &a.Confidence, &a.RealFrames, &a.FakeFrames, &a.Hash, &a.Analyzer, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Insert stores an analysis with its metadata rows and frames in one
// transaction and sets a.ID.
func (r *AnalysisRepository) Insert(a *model.Analysis) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO analyses (upload_id, kind, filename, stored_name, filepath, filesize, mime_type,
			verdict, confidence, real_frames, fake_frames, hash, analyzer, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.UploadID, a.Kind, a.Filename, a.StoredName, a.FilePath, a.FileSize, a.MIMEType,
		a.Verdict, a.Confidence, a.RealFrames, a.FakeFrames, a.Hash, a.Analyzer, a.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(a.Metadata) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO analysis_metadata (analysis_id, position, key, value) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return 0, fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()
		for i, row := range a.Metadata {
			if _, err := stmt.Exec(id, i, row.Key, row.Value); err != nil {
				return 0, fmt.Errorf("failed to insert metadata: %w", err)
			}
		}
	}

	if len(a.Frames) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO analysis_frames (analysis_id, position, timestamp, is_deepfake, confidence) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()
		for i, f := range a.Frames {
			if _, err := stmt.Exec(id, i, f.Timestamp, f.IsDeepfake, f.Confidence); err != nil {
				return 0, fmt.Errorf("failed to insert frame: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit analysis: %w", err)
	}
	a.ID = id
	return id, nil
}

// GetByID retrieves an analysis with its metadata and frames. It returns
// nil, nil when no analysis has that ID.
func (r *AnalysisRepository) GetByID(id int64) (*model.Analysis, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	a, err := scanAnalysis(r.db.Conn().QueryRow(`SELECT `+analysisColumns+` FROM analyses WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	if a.Metadata, err = r.metadata(id); err != nil {
		return nil, err
	}
	if a.Frames, err = r.frames(id); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AnalysisRepository) metadata(id int64) (model.Metadata, error) {
	rows, err := r.db.Conn().Query(`SELECT key, value FROM analysis_metadata WHERE analysis_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	md := model.Metadata{}
	for rows.Next() {
		var row model.MetadataEntry
		if err := rows.Scan(&row.Key, &row.Value); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		md = append(md, row)
	}
	return md, rows.Err()
}

func (r *AnalysisRepository) frames(id int64) ([]model.FrameVerdict, error) {
	rows, err := r.db.Conn().Query(`SELECT timestamp, is_deepfake, confidence FROM analysis_frames WHERE analysis_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query frames: %w", err)
	}
	defer rows.Close()

	var frames []model.FrameVerdict
	for rows.Next() {
		var f model.FrameVerdict
		if err := rows.Scan(&f.Timestamp, &f.IsDeepfake, &f.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

func whereClause(filter *model.AnalysisFilter) (string, []any) {
	query := " WHERE 1=1"
	args := []any{}
	if filter == nil {
		return query, args
	}

	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, filter.Kind)
	}

	if filter.Verdict != "" {
		query += " AND verdict = ?"
		args = append(args, filter.Verdict)
	}

	if !filter.DateAfter.IsZero() {
		query += " AND DATE(created_at) >= DATE(?)"
		args = append(args, filter.DateAfter.UTC().Format("2006-01-02"))
	}

	if !filter.DateBefore.IsZero() {
		query += " AND DATE(created_at) <= DATE(?)"
		args = append(args, filter.DateBefore.UTC().Format("2006-01-02"))
	}

	return query, args
}

// GetAll lists analyses newest first. Metadata and frames are not loaded.
func (r *AnalysisRepository) GetAll(filter *model.AnalysisFilter) ([]model.Analysis, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)
	query := `SELECT ` + analysisColumns + ` FROM analyses` + where + ` ORDER BY created_at DESC, id DESC`

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []model.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, *a)
	}
	return analyses, rows.Err()
}

// GetTotalCount returns the number of analyses matching the filter.
func (r *AnalysisRepository) GetTotalCount(filter *model.AnalysisFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)
	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM analyses`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return count, nil
}

// GetHashes returns the perceptual hashes recorded for kind, newest first.
func (r *AnalysisRepository) GetHashes(kind model.MediaKind) ([]repository.HashRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, hash, filename, created_at FROM analyses
		WHERE kind = ? AND hash != ''
		ORDER BY created_at DESC, id DESC
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to query hashes: %w", err)
	}
	defer rows.Close()

	var records []repository.HashRecord
	for rows.Next() {
		var rec repository.HashRecord
		if err := rows.Scan(&rec.ID, &rec.Hash, &rec.Filename, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan hash: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetStats returns totals per kind and per verdict.
func (r *AnalysisRepository) GetStats() (*model.AnalysisStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.AnalysisStats{
		PerKind:    make(map[string]int),
		PerVerdict: make(map[string]int),
	}

	if err := r.db.Conn().QueryRow(`SELECT COUNT(*), COALESCE(SUM(filesize), 0) FROM analyses`).Scan(&stats.TotalAnalyses, &stats.TotalSizeBytes); err != nil {
		return nil, fmt.Errorf("failed to count analyses: %w", err)
	}

	for column, target := range map[string]map[string]int{"kind": stats.PerKind, "verdict": stats.PerVerdict} {
		rows, err := r.db.Conn().Query(`SELECT ` + column + `, COUNT(*) FROM analyses GROUP BY ` + column)
		if err != nil {
			return nil, fmt.Errorf("failed to group by %s: %w", column, err)
		}
		for rows.Next() {
			var key string
			var count int
			if err := rows.Scan(&key, &count); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan %s stats: %w", column, err)
			}
			target[key] = count
		}
		rows.Close()
	}

	return stats, nil
}

// Delete removes an analysis by its ID.
func (r *AnalysisRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM analyses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	return nil
}

// DeleteAll removes every analysis.
func (r *AnalysisRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM analyses`); err != nil {
		return fmt.Errorf("failed to delete analyses: %w", err)
	}
	return nil
}

// DeleteByStoredNames removes the analyses of uploads that no longer exist.
func (r *AnalysisRepository) DeleteByStoredNames(names []string) (int64, error) {
	if len(names) == 0 {
		return 0, nil
	}

	r.db.Lock()
	defer r.db.Unlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}

	result, err := r.db.Conn().Exec(`DELETE FROM analyses WHERE stored_name IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete analyses: %w", err)
	}
	return result.RowsAffected()
}
