package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/estimator/internal/fault"
)

// Estimation is one saved record. Nil pointers are stored as NULL.
type Estimation struct {
	ID           uuid.UUID `json:"id" db:"id"`
	FundName     string    `json:"fund_name" db:"fund_name"`
	Items        *string   `json:"items" db:"items"`
	DSEstimation *string   `json:"ds_estimation" db:"ds_estimation"`
	LEEstimation *string   `json:"le_estimation" db:"le_estimation"`
	QAEstimation *string   `json:"qa_estimation" db:"qa_estimation"`
	SlackLink    *string   `json:"slack_link" db:"slack_link"`
	ClickUpLink  *string   `json:"clickup_link" db:"clickup_link"`
	RawThread    *string   `json:"raw_thread" db:"raw_thread"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// NewEstimation is the input to Create.
type NewEstimation struct {
	FundName     string  `json:"fund_name"`
	Items        *string `json:"items"`
	DSEstimation *string `json:"ds_estimation"`
	LEEstimation *string `json:"le_estimation"`
	QAEstimation *string `json:"qa_estimation"`
	SlackLink    *string `json:"slack_link"`
	ClickUpLink  *string `json:"clickup_link"`
	RawThread    *string `json:"raw_thread"`
}

// Patch maps column names to new values. Only keys present are written; a
// nil or empty value clears the column.
type Patch map[string]*string

// Filter restricts List to records with (or without) estimates.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterDS      Filter = "ds"
	FilterLE      Filter = "le"
	FilterQA      Filter = "qa"
	FilterMissing Filter = "missing"
)

type ListOptions struct {
	Search string
	Filter Filter
}

const estimationColumns = `id, fund_name, items, ds_estimation, le_estimation, qa_estimation,
	slack_link, clickup_link, raw_thread, created_at, updated_at`

// writableColumns are the columns a Patch may touch.
var writableColumns = map[string]bool{
	"fund_name":     true,
	"items":         true,
	"ds_estimation": true,
	"le_estimation": true,
	"qa_estimation": true,
	"slack_link":    true,
	"clickup_link":  true,
	"raw_thread":    true,
}

var searchColumns = []string{"fund_name", "items", "ds_estimation", "le_estimation", "qa_estimation"}

var filterClauses = map[Filter]string{
	FilterDS: "ds_estimation IS NOT NULL AND ds_estimation <> ''",
	FilterLE: "le_estimation IS NOT NULL AND le_estimation <> ''",
	FilterQA: "qa_estimation IS NOT NULL AND qa_estimation <> ''",
	FilterMissing: "(ds_estimation IS NULL OR le_estimation IS NULL OR qa_estimation IS NULL" +
		" OR ds_estimation = '' OR le_estimation = '' OR qa_estimation = '')",
}

// ParseFilter maps a query value to a Filter. Unknown values mean all.
func ParseFilter(raw string) Filter {
	f := Filter(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := filterClauses[f]; ok {
		return f
	}
	return FilterAll
}

func buildListQuery(opts ListOptions) (string, []any) {
	var (
		where []string
		args  []any
	)

	if search := strings.TrimSpace(opts.Search); search != "" {
		args = append(args, "%"+search+"%")
		conds := make([]string, len(searchColumns))
		for i, col := range searchColumns {
			conds[i] = fmt.Sprintf("%s ILIKE $%d", col, len(args))
		}
		where = append(where, "("+strings.Join(conds, " OR ")+")")
	}
	if clause, ok := filterClauses[opts.Filter]; ok {
		where = append(where, clause)
	}

	query := "SELECT " + estimationColumns + " FROM estimations"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	return query, args
}

func (s *Store) List(ctx context.Context, opts ListOptions) ([]Estimation, error) {
	query, args := buildListQuery(opts)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list estimations: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[Estimation])
	if err != nil {
		return nil, fmt.Errorf("scan estimations: %w", err)
	}
	if out == nil {
		out = []Estimation{}
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Estimation, error) {
	uid, err := parseID("store.get", id)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, "SELECT "+estimationColumns+" FROM estimations WHERE id = $1", uid)
	if err != nil {
		return nil, fmt.Errorf("get estimation: %w", err)
	}
	return collectOne("store.get", rows)
}

func (s *Store) Create(ctx context.Context, in NewEstimation) (*Estimation, error) {
	fund := strings.TrimSpace(in.FundName)
	if fund == "" {
		return nil, fault.New(fault.KindValidation, "store.create", "Fund name is required")
	}

	rows, err := s.pool.Query(ctx, `
		INSERT INTO estimations (id, fund_name, items, ds_estimation, le_estimation, qa_estimation,
			slack_link, clickup_link, raw_thread, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+estimationColumns,
		uuid.New(), fund,
		nullable(in.Items), nullable(in.DSEstimation), nullable(in.LEEstimation), nullable(in.QAEstimation),
		nullable(in.SlackLink), nullable(in.ClickUpLink), nullable(in.RawThread),
	)
	if err != nil {
		return nil, fmt.Errorf("insert estimation: %w", err)
	}
	return collectOne("store.create", rows)
}

// buildUpdate renders the UPDATE for a patch. It returns "" when the patch
// has no writable keys.
func buildUpdate(id uuid.UUID, patch Patch) (string, []any, error) {
	cols := make([]string, 0, len(patch))
	for col := range patch {
		if writableColumns[col] {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		return "", nil, nil
	}
	sort.Strings(cols)

	args := []any{id}
	sets := make([]string, 0, len(cols)+1)
	for _, col := range cols {
		v := patch[col]
		if col == "fund_name" {
			if v == nil || strings.TrimSpace(*v) == "" {
				return "", nil, fault.New(fault.KindValidation, "store.update", "Fund name is required")
			}
			trimmed := strings.TrimSpace(*v)
			v = &trimmed
		} else {
			v = nullable(v)
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	sets = append(sets, "updated_at = now()")

	query := "UPDATE estimations SET " + strings.Join(sets, ", ") +
		" WHERE id = $1 RETURNING " + estimationColumns
	return query, args, nil
}

func (s *Store) Update(ctx context.Context, id string, patch Patch) (*Estimation, error) {
	uid, err := parseID("store.update", id)
	if err != nil {
		return nil, err
	}
	query, args, err := buildUpdate(uid, patch)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return s.Get(ctx, id)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update estimation: %w", err)
	}
	return collectOne("store.update", rows)
}

// Delete removes a record. Deleting an absent record is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	uid, err := parseID("store.delete", id)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, "DELETE FROM estimations WHERE id = $1", uid); err != nil {
		return fmt.Errorf("delete estimation: %w", err)
	}
	return nil
}

func collectOne(op string, rows pgx.Rows) (*Estimation, error) {
	e, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Estimation])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.New(fault.KindNotFound, op, "Estimation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan estimation: %w", err)
	}
	return &e, nil
}

func parseID(op, id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fault.New(fault.KindNotFound, op, "Estimation not found").WithDetail(err.Error())
	}
	return uid, nil
}

// nullable maps empty strings to NULL.
func nullable(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

// FindBySlackLink returns the newest record saved for a thread link.
func (s *Store) FindBySlackLink(ctx context.Context, link string) (*Estimation, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+estimationColumns+" FROM estimations WHERE slack_link = $1 ORDER BY created_at DESC LIMIT 1", link)
	if err != nil {
		return nil, fmt.Errorf("find estimation by link: %w", err)
	}
	return collectOne("store.find_by_link", rows)
}
