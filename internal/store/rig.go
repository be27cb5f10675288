package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kmellet/rigkit/internal/memscene"
	"github.com/kmellet/rigkit/internal/rig"
)

// ErrNotFound is returned when the named rig does not exist.
var ErrNotFound = errors.New("store: rig not found")

// RigInfo summarizes a saved rig for listings.
type RigInfo struct {
	ID          string
	Name        string
	ModuleCount int
	UpdatedAt   string
}

// SaveRig writes the rig's modules and scene snapshot under name, replacing
// any previous save of the same name. It returns the rig's id.
func (s *Store) SaveRig(ctx context.Context, name string, r *rig.Rig, sc *memscene.Scene) (string, error) {
	snapJSON, err := json.Marshal(sc.Snapshot())
	if err != nil {
		return "", fmt.Errorf("marshal scene snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, `SELECT id FROM rigs WHERE name = ?`, name).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rigs (id, name) VALUES (?, ?)`, id, name); err != nil {
			return "", fmt.Errorf("insert rig: %w", err)
		}
	case err != nil:
		return "", fmt.Errorf("look up rig: %w", err)
	default:
		if _, err := tx.ExecContext(ctx,
			`UPDATE rigs SET updated_at = datetime('now') WHERE id = ?`, id); err != nil {
			return "", fmt.Errorf("touch rig: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM modules WHERE rig_id = ?`, id); err != nil {
		return "", fmt.Errorf("clear modules: %w", err)
	}
	for i, m := range r.Modules() {
		fieldsJSON, err := m.Fields().Encode()
		if err != nil {
			return "", fmt.Errorf("encode fields of %q: %w", m.Name(), err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO modules (rig_id, name, type, position, fields_json) VALUES (?, ?, ?, ?, ?)`,
			id, m.Name(), m.Type(), i, string(fieldsJSON)); err != nil {
			return "", fmt.Errorf("insert module %q: %w", m.Name(), err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO scene_snapshots (rig_id, snapshot_json) VALUES (?, ?)
		ON CONFLICT(rig_id) DO UPDATE SET
			snapshot_json = excluded.snapshot_json,
			updated_at = datetime('now')`,
		id, string(snapJSON)); err != nil {
		return "", fmt.Errorf("save scene snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit save: %w", err)
	}
	return id, nil
}

// LoadRig restores the named rig: the scene comes back from its snapshot
// and the modules re-attach without initialization, so a following Update
// is a no-op.
func (s *Store) LoadRig(ctx context.Context, name string, opts ...rig.Option) (*rig.Rig, *memscene.Scene, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM rigs WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("look up rig: %w", err)
	}

	var snapJSON string
	err = s.db.QueryRowContext(ctx,
		`SELECT snapshot_json FROM scene_snapshots WHERE rig_id = ?`, id).Scan(&snapJSON)
	if err != nil {
		return nil, nil, fmt.Errorf("load scene snapshot: %w", err)
	}
	var snap memscene.Snapshot
	if err := json.Unmarshal([]byte(snapJSON), &snap); err != nil {
		return nil, nil, fmt.Errorf("decode scene snapshot: %w", err)
	}
	sc, err := memscene.Restore(&snap)
	if err != nil {
		return nil, nil, fmt.Errorf("restore scene: %w", err)
	}

	r, err := rig.Rehydrate(sc, opts...)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, type, fields_json FROM modules
		WHERE rig_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load modules: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var modName, modType, fieldsJSON string
		if err := rows.Scan(&modName, &modType, &fieldsJSON); err != nil {
			return nil, nil, fmt.Errorf("scan module row: %w", err)
		}
		if _, err := r.AttachModule(modType, modName, []byte(fieldsJSON)); err != nil {
			return nil, nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate modules: %w", err)
	}
	return r, sc, nil
}

// ListRigs returns saved rigs sorted by name.
func (s *Store) ListRigs(ctx context.Context) ([]RigInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.name, r.updated_at, COUNT(m.name)
		FROM rigs r LEFT JOIN modules m ON m.rig_id = r.id
		GROUP BY r.id ORDER BY r.name`)
	if err != nil {
		return nil, fmt.Errorf("list rigs: %w", err)
	}
	defer rows.Close()
	var infos []RigInfo
	for rows.Next() {
		var info RigInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.UpdatedAt, &info.ModuleCount); err != nil {
			return nil, fmt.Errorf("scan rig row: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DeleteRig removes a saved rig and its modules and snapshot.
func (s *Store) DeleteRig(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rigs WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete rig: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}
