package implementation

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ai-sceneguide-be/internal/entity"
	"ai-sceneguide-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// GuideSQLiteSchema is the secondary store layout. Column names follow the
// legacy camelCase document shape and booleans are INTEGER.
var GuideSQLiteSchema = []string{
	`CREATE TABLE IF NOT EXISTS guides (
		id TEXT PRIMARY KEY,
		ownerId TEXT NOT NULL,
		characterName TEXT NOT NULL,
		productionTitle TEXT NOT NULL,
		productionType TEXT,
		sceneText TEXT,
		primaryHtml TEXT NOT NULL,
		secondaryRequested INTEGER NOT NULL DEFAULT 0,
		secondaryHtml TEXT,
		secondaryCompleted INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		degraded INTEGER NOT NULL DEFAULT 0,
		providerUsed TEXT,
		extractionMethod TEXT,
		extractionConfidence TEXT,
		retrievalSources TEXT,
		isFavorite INTEGER NOT NULL DEFAULT 0,
		isPublic INTEGER NOT NULL DEFAULT 0,
		createdAt TEXT NOT NULL,
		updatedAt TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_guides_owner ON guides(ownerId, createdAt);`,
}

// sqliteBool reads booleans stored as INTEGER, TEXT or native bool.
type sqliteBool bool

func (b *sqliteBool) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*b = false
	case bool:
		*b = sqliteBool(v)
	case int64:
		*b = v != 0
	case float64:
		*b = v != 0
	case []byte:
		return b.Scan(string(v))
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if s == "" {
			*b = false
			return nil
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			*b = n != 0
			return nil
		}
		parsed, err := strconv.ParseBool(s)
		if err != nil {
			if s == "yes" || s == "y" || s == "on" {
				*b = true
				return nil
			}
			return fmt.Errorf("cannot coerce %q to bool", v)
		}
		*b = sqliteBool(parsed)
	default:
		return fmt.Errorf("cannot coerce %T to bool", src)
	}
	return nil
}

func (b sqliteBool) Value() (driver.Value, error) {
	if b {
		return int64(1), nil
	}
	return int64(0), nil
}

type sqliteGuideRow struct {
	Id                   string         `db:"id"`
	OwnerId              string         `db:"ownerId"`
	CharacterName        string         `db:"characterName"`
	ProductionTitle      string         `db:"productionTitle"`
	ProductionType       sql.NullString `db:"productionType"`
	SceneText            sql.NullString `db:"sceneText"`
	PrimaryHtml          string         `db:"primaryHtml"`
	SecondaryRequested   sqliteBool     `db:"secondaryRequested"`
	SecondaryHtml        sql.NullString `db:"secondaryHtml"`
	SecondaryCompleted   sqliteBool     `db:"secondaryCompleted"`
	Status               string         `db:"status"`
	Degraded             sqliteBool     `db:"degraded"`
	ProviderUsed         sql.NullString `db:"providerUsed"`
	ExtractionMethod     sql.NullString `db:"extractionMethod"`
	ExtractionConfidence sql.NullString `db:"extractionConfidence"`
	RetrievalSources     sql.NullString `db:"retrievalSources"`
	IsFavorite           sqliteBool     `db:"isFavorite"`
	IsPublic             sqliteBool     `db:"isPublic"`
	CreatedAt            string         `db:"createdAt"`
	UpdatedAt            sql.NullString `db:"updatedAt"`
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toSQLiteRow(g *entity.Guide) (*sqliteGuideRow, error) {
	sources, err := json.Marshal(g.RetrievalSources)
	if err != nil {
		return nil, err
	}

	row := &sqliteGuideRow{
		Id:                   g.Id.String(),
		OwnerId:              g.OwnerId.String(),
		CharacterName:        g.CharacterName,
		ProductionTitle:      g.ProductionTitle,
		ProductionType:       nullString(g.ProductionType),
		SceneText:            nullString(g.SceneText),
		PrimaryHtml:          g.PrimaryHtml,
		SecondaryRequested:   sqliteBool(g.SecondaryRequested),
		SecondaryCompleted:   sqliteBool(g.SecondaryCompleted),
		Status:               string(g.Status),
		Degraded:             sqliteBool(g.Degraded),
		ProviderUsed:         nullString(g.ProviderUsed),
		ExtractionMethod:     nullString(g.ExtractionMethod),
		ExtractionConfidence: nullString(g.ExtractionConfidence),
		RetrievalSources:     sql.NullString{String: string(sources), Valid: true},
		IsFavorite:           sqliteBool(g.IsFavorite),
		IsPublic:             sqliteBool(g.IsPublic),
		CreatedAt:            g.CreatedAt.UTC().Format(sqliteTimeLayout),
	}
	if g.SecondaryHtml != nil {
		row.SecondaryHtml = sql.NullString{String: *g.SecondaryHtml, Valid: true}
	}
	if g.UpdatedAt != nil {
		row.UpdatedAt = nullString(g.UpdatedAt.UTC().Format(sqliteTimeLayout))
	}
	return row, nil
}

func (r *sqliteGuideRow) toEntity() (*entity.Guide, error) {
	id, err := uuid.Parse(r.Id)
	if err != nil {
		return nil, fmt.Errorf("guide id %q: %w", r.Id, err)
	}
	ownerId, err := uuid.Parse(r.OwnerId)
	if err != nil {
		return nil, fmt.Errorf("guide owner %q: %w", r.OwnerId, err)
	}
	createdAt, err := time.Parse(sqliteTimeLayout, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("guide createdAt %q: %w", r.CreatedAt, err)
	}

	g := &entity.Guide{
		Id:                   id,
		OwnerId:              ownerId,
		CharacterName:        r.CharacterName,
		ProductionTitle:      r.ProductionTitle,
		ProductionType:       r.ProductionType.String,
		SceneText:            r.SceneText.String,
		PrimaryHtml:          r.PrimaryHtml,
		SecondaryRequested:   bool(r.SecondaryRequested),
		SecondaryCompleted:   bool(r.SecondaryCompleted),
		Status:               entity.GuideStatus(r.Status),
		Degraded:             bool(r.Degraded),
		ProviderUsed:         r.ProviderUsed.String,
		ExtractionMethod:     r.ExtractionMethod.String,
		ExtractionConfidence: r.ExtractionConfidence.String,
		IsFavorite:           bool(r.IsFavorite),
		IsPublic:             bool(r.IsPublic),
		CreatedAt:            createdAt,
	}
	if r.SecondaryHtml.Valid {
		html := r.SecondaryHtml.String
		g.SecondaryHtml = &html
	}
	if r.RetrievalSources.Valid && r.RetrievalSources.String != "" && r.RetrievalSources.String != "null" {
		if err := json.Unmarshal([]byte(r.RetrievalSources.String), &g.RetrievalSources); err != nil {
			return nil, fmt.Errorf("guide retrievalSources: %w", err)
		}
	}
	if r.UpdatedAt.Valid {
		if t, err := time.Parse(sqliteTimeLayout, r.UpdatedAt.String); err == nil {
			g.UpdatedAt = &t
		}
	}
	return g, nil
}

const sqliteGuideColumns = `id, ownerId, characterName, productionTitle, productionType, sceneText,
	primaryHtml, secondaryRequested, secondaryHtml, secondaryCompleted, status, degraded,
	providerUsed, extractionMethod, extractionConfidence, retrievalSources, isFavorite, isPublic, createdAt, updatedAt`

// SQLiteGuideRepositoryImpl is the secondary guide backend.
type SQLiteGuideRepositoryImpl struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSQLiteGuideRepository(db *sqlx.DB) contract.GuideRepository {
	return &SQLiteGuideRepositoryImpl{db: db, now: time.Now}
}

func (r *SQLiteGuideRepositoryImpl) Create(ctx context.Context, guide *entity.Guide) error {
	if guide.CreatedAt.IsZero() {
		guide.CreatedAt = r.now()
	}
	// Stored at nanosecond precision in UTC; keep the caller's copy identical
	// to what a later read returns.
	guide.CreatedAt = guide.CreatedAt.UTC()

	row, err := toSQLiteRow(guide)
	if err != nil {
		return err
	}

	_, err = r.db.NamedExecContext(ctx, `INSERT INTO guides (`+sqliteGuideColumns+`) VALUES (
		:id, :ownerId, :characterName, :productionTitle, :productionType, :sceneText,
		:primaryHtml, :secondaryRequested, :secondaryHtml, :secondaryCompleted, :status, :degraded,
		:providerUsed, :extractionMethod, :extractionConfidence, :retrievalSources, :isFavorite, :isPublic, :createdAt, :updatedAt)`, row)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return contract.ErrDuplicateGuide
		}
		return err
	}
	return nil
}

func (r *SQLiteGuideRepositoryImpl) FindByIdAndOwner(ctx context.Context, id, ownerId uuid.UUID) (*entity.Guide, error) {
	var row sqliteGuideRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+sqliteGuideColumns+` FROM guides WHERE id = ? AND ownerId = ?`,
		id.String(), ownerId.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contract.ErrGuideNotFound
		}
		return nil, err
	}
	return row.toEntity()
}

var sqlitePatchColumns = []struct {
	column string
	value  func(p entity.GuidePatch) (interface{}, bool)
}{
	{"secondaryRequested", func(p entity.GuidePatch) (interface{}, bool) {
		if p.SecondaryRequested == nil {
			return nil, false
		}
		return sqliteBool(*p.SecondaryRequested), true
	}},
	{"secondaryHtml", func(p entity.GuidePatch) (interface{}, bool) {
		if p.SecondaryHtml == nil {
			return nil, false
		}
		return *p.SecondaryHtml, true
	}},
	{"secondaryCompleted", func(p entity.GuidePatch) (interface{}, bool) {
		if p.SecondaryCompleted == nil {
			return nil, false
		}
		return sqliteBool(*p.SecondaryCompleted), true
	}},
	{"status", func(p entity.GuidePatch) (interface{}, bool) {
		if p.Status == nil {
			return nil, false
		}
		return string(*p.Status), true
	}},
	{"isFavorite", func(p entity.GuidePatch) (interface{}, bool) {
		if p.IsFavorite == nil {
			return nil, false
		}
		return sqliteBool(*p.IsFavorite), true
	}},
	{"isPublic", func(p entity.GuidePatch) (interface{}, bool) {
		if p.IsPublic == nil {
			return nil, false
		}
		return sqliteBool(*p.IsPublic), true
	}},
}

func (r *SQLiteGuideRepositoryImpl) Update(ctx context.Context, id uuid.UUID, patch entity.GuidePatch) error {
	var sets []string
	var args []interface{}
	for _, c := range sqlitePatchColumns {
		if v, ok := c.value(patch); ok {
			sets = append(sets, c.column+" = ?")
			args = append(args, v)
		}
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updatedAt = ?")
	args = append(args, r.now().UTC().Format(sqliteTimeLayout), id.String())

	res, err := r.db.ExecContext(ctx, `UPDATE guides SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return contract.ErrGuideNotFound
	}
	return nil
}

func (r *SQLiteGuideRepositoryImpl) FindAllByOwner(ctx context.Context, ownerId uuid.UUID) ([]*entity.Guide, error) {
	var rows []sqliteGuideRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+sqliteGuideColumns+` FROM guides WHERE ownerId = ? ORDER BY createdAt DESC`,
		ownerId.String())
	if err != nil {
		return nil, err
	}

	guides := make([]*entity.Guide, 0, len(rows))
	for i := range rows {
		g, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		guides = append(guides, g)
	}
	return guides, nil
}

func (r *SQLiteGuideRepositoryImpl) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
