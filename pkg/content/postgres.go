// pkg/content/postgres.go
package content

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"cpwidget/pkg/db"
	"cpwidget/pkg/props"
)

// pgTree implements Tree backed by PostgreSQL.
type pgTree struct {
	dbPool *pgxpool.Pool
	log    *zap.SugaredLogger
}

func NewPostgresTree(dbPool *pgxpool.Pool, log *zap.SugaredLogger) Tree {
	return &pgTree{dbPool: dbPool, log: log}
}

// EnsureSchema creates the content and profile tables. Safe to call repeatedly.
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS content_nodes (
  path text PRIMARY KEY,
  is_page boolean NOT NULL DEFAULT false,
  props jsonb NOT NULL DEFAULT '{}'::jsonb,
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS user_profiles (
  user_id text PRIMARY KEY,
  email text,
  props jsonb NOT NULL DEFAULT '{}'::jsonb,
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS content_nodes_path_prefix_idx ON content_nodes (path text_pattern_ops);
`)
	return err
}

// SeedNodes upserts seed nodes; existing properties are merged, not replaced.
func SeedNodes(ctx context.Context, dbPool *pgxpool.Pool, nodes []Node) error {
	return db.WithTx(ctx, dbPool, func(tx pgx.Tx) error {
		for _, n := range nodes {
			b, err := json.Marshal(props.FromMap(n.Properties))
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
INSERT INTO content_nodes (path, is_page, props) VALUES ($1, $2, $3::jsonb)
ON CONFLICT (path) DO UPDATE SET is_page = content_nodes.is_page OR EXCLUDED.is_page,
  props = content_nodes.props || EXCLUDED.props, updated_at = NOW()`,
				Clean(n.Path), n.Page, string(b)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (t *pgTree) node(ctx context.Context, p string) (bool, props.Map, error) {
	var isPage bool
	var raw []byte
	err := t.dbPool.QueryRow(ctx, `SELECT is_page, props FROM content_nodes WHERE path=$1`, p).Scan(&isPage, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil, ErrNotFound
	}
	if err != nil {
		return false, nil, err
	}
	m := props.Map{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &m); err != nil {
			return false, nil, err
		}
	}
	return isPage, m, nil
}

func (t *pgTree) ContainingPage(ctx context.Context, p string) (Page, error) {
	for cur := Clean(p); cur != ""; cur = parentOf(cur) {
		isPage, _, err := t.node(ctx, cur)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return Page{}, err
		}
		if isPage {
			return t.page(ctx, cur)
		}
	}
	return Page{}, ErrNoPage
}

func (t *pgTree) Page(ctx context.Context, p string) (Page, error) {
	p = Clean(p)
	isPage, _, err := t.node(ctx, p)
	if err != nil {
		return Page{}, err
	}
	if !isPage {
		return Page{}, ErrNotFound
	}
	return t.page(ctx, p)
}

func (t *pgTree) page(ctx context.Context, p string) (Page, error) {
	pg := Page{Path: p}
	_, own, err := t.node(ctx, p)
	if err != nil {
		return Page{}, err
	}
	pg.Properties = own
	if _, c, err := t.node(ctx, strings.TrimSuffix(p, "/")+"/jcr:content"); err == nil {
		pg.Properties = c
	} else if !errors.Is(err, ErrNotFound) {
		return Page{}, err
	}
	for cur := parentOf(p); cur != ""; cur = parentOf(cur) {
		isPage, _, err := t.node(ctx, cur)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return Page{}, err
		}
		if isPage {
			pg.Parent = cur
			break
		}
	}
	return pg, nil
}

func (t *pgTree) Properties(ctx context.Context, p string) (props.Map, error) {
	_, m, err := t.node(ctx, Clean(p))
	return m, err
}

func (t *pgTree) WriteProperties(ctx context.Context, p string, values props.Map) error {
	b, err := json.Marshal(values)
	if err != nil {
		return err
	}
	err = db.WithTx(ctx, t.dbPool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
INSERT INTO content_nodes (path, props) VALUES ($1, $2::jsonb)
ON CONFLICT (path) DO UPDATE SET props = content_nodes.props || EXCLUDED.props, updated_at = NOW()`,
			Clean(p), string(b))
		return err
	})
	if err != nil {
		t.log.Errorw("content write failed", "path", p, "err", err)
		return err
	}
	return nil
}

func (t *pgTree) Children(ctx context.Context, p string) ([]string, error) {
	p = Clean(p)
	prefix := strings.TrimSuffix(p, "/") + "/"
	rows, err := t.dbPool.Query(ctx, `SELECT path FROM content_nodes WHERE path LIKE $1 || '%'`, escapeLike(prefix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seen := map[string]struct{}{}
	for rows.Next() {
		var full string
		if err := rows.Scan(&full); err != nil {
			return nil, err
		}
		name := strings.SplitN(strings.TrimPrefix(full, prefix), "/", 2)[0]
		if name != "" {
			seen[name] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(seen) == 0 {
		if _, _, err := t.node(ctx, p); err != nil {
			return nil, err
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
