package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/seolens/seolens/internal/models"
)

// SaveReport saves an audit report and its recommendations.
func (db *DB) SaveReport(report *models.AuditReport) error {
	resultJSON, err := json.Marshal(report.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	grade := ""
	if report.Result.Quality != nil {
		grade = report.Result.Quality.Grade
	}

	_, err = tx.Exec(`
		INSERT INTO reports (id, content, keyword, title, meta_description, result, grade, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, report.ID, report.Content, report.Keyword, report.Title, report.MetaDesc, resultJSON, grade, report.CreatedAt, report.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	if err := insertRecommendations(tx, report); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateReport replaces a report's result after enrichment.
func (db *DB) UpdateReport(report *models.AuditReport) error {
	resultJSON, err := json.Marshal(report.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	grade := ""
	if report.Result.Quality != nil {
		grade = report.Result.Quality.Grade
	}

	stage := "offline"
	if report.Result.AIUsed {
		stage = "enriched"
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE reports
		SET result = ?, grade = ?, processing_stage = ?, enriched_at = ?, updated_at = ?
		WHERE id = ?
	`, resultJSON, grade, stage, time.Now().UTC(), report.UpdatedAt, report.ID)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrReportNotFound
	}

	// Recommendations may change after enrichment; rewrite them.
	if _, err := tx.Exec("DELETE FROM recommendations WHERE report_id = ?", report.ID); err != nil {
		return fmt.Errorf("failed to clear recommendations: %w", err)
	}
	if err := insertRecommendations(tx, report); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func insertRecommendations(tx *sql.Tx, report *models.AuditReport) error {
	insert := func(category string, recs []string) error {
		for _, rec := range recs {
			if _, err := tx.Exec(`
				INSERT INTO recommendations (report_id, category, recommendation)
				VALUES (?, ?, ?)
			`, report.ID, category, rec); err != nil {
				return fmt.Errorf("failed to insert recommendation: %w", err)
			}
		}
		return nil
	}

	if report.Result.Keyword != nil {
		if err := insert("keyword", report.Result.Keyword.Recommendations); err != nil {
			return err
		}
	}
	if report.Result.Quality != nil {
		if err := insert("quality", report.Result.Quality.Recommendations); err != nil {
			return err
		}
	}
	return nil
}

// GetReport retrieves a report by ID
func (db *DB) GetReport(id string) (*models.AuditReport, error) {
	var (
		content    string
		keyword    string
		title      string
		metaDesc   string
		resultJSON string
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := db.conn.QueryRow(`
		SELECT content, keyword, title, meta_description, result, created_at, updated_at
		FROM reports
		WHERE id = ?
	`, id).Scan(&content, &keyword, &title, &metaDesc, &resultJSON, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var result models.Result
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &models.AuditReport{
		ID:        id,
		Content:   content,
		Keyword:   keyword,
		Title:     title,
		MetaDesc:  metaDesc,
		Result:    result,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// ListReports retrieves reports with pagination, newest first.
func (db *DB) ListReports(limit, offset int) ([]*models.AuditReport, error) {
	rows, err := db.conn.Query(`
		SELECT id, content, keyword, title, meta_description, result, created_at, updated_at
		FROM reports
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// SearchByKeyword retrieves reports whose target keyword matches.
func (db *DB) SearchByKeyword(keyword string) ([]*models.AuditReport, error) {
	rows, err := db.conn.Query(`
		SELECT id, content, keyword, title, meta_description, result, created_at, updated_at
		FROM reports
		WHERE keyword = ?
		ORDER BY created_at DESC
	`, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports by keyword: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// SearchByGrade retrieves reports with a specific quality grade.
func (db *DB) SearchByGrade(grade string) ([]*models.AuditReport, error) {
	rows, err := db.conn.Query(`
		SELECT id, content, keyword, title, meta_description, result, created_at, updated_at
		FROM reports
		WHERE grade = ?
		ORDER BY created_at DESC
	`, grade)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports by grade: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

func scanReports(rows *sql.Rows) ([]*models.AuditReport, error) {
	var reports []*models.AuditReport
	for rows.Next() {
		var (
			id         string
			content    string
			keyword    string
			title      string
			metaDesc   string
			resultJSON string
			createdAt  time.Time
			updatedAt  time.Time
		)

		if err := rows.Scan(&id, &content, &keyword, &title, &metaDesc, &resultJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var result models.Result
		if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}

		reports = append(reports, &models.AuditReport{
			ID:        id,
			Content:   content,
			Keyword:   keyword,
			Title:     title,
			MetaDesc:  metaDesc,
			Result:    result,
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return reports, nil
}

// Recommendations returns the stored recommendations for a report,
// grouped by category.
func (db *DB) Recommendations(reportID string) (map[string][]string, error) {
	rows, err := db.conn.Query(`
		SELECT category, recommendation
		FROM recommendations
		WHERE report_id = ?
		ORDER BY id
	`, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	recs := make(map[string][]string)
	for rows.Next() {
		var category, rec string
		if err := rows.Scan(&category, &rec); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		recs[category] = append(recs[category], rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return recs, nil
}

// DeleteReport deletes a report by ID
func (db *DB) DeleteReport(id string) error {
	result, err := db.conn.Exec("DELETE FROM reports WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return ErrReportNotFound
	}

	return nil
}
