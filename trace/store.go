package trace

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/damoonsh/Halite/tick"
)

// Store persists traces to SQLite: one row per tick and player, and one row
// per unit and base decision. Every row carries the run id of the store.
type Store struct {
	conn  *sqlx.DB
	runID string
}

// TickRow summarizes one stored tick.
type TickRow struct {
	Tick   int     `db:"tick"`
	Player string  `db:"player"`
	Bank   float64 `db:"bank"`
	Units  int     `db:"units"`
	Bases  int     `db:"bases"`
}

// UnitRow is one stored unit decision.
type UnitRow struct {
	Tick          int    `db:"tick"`
	Player        string `db:"player"`
	Seq           int    `db:"seq"`
	UnitID        string `db:"unit_id"`
	Action        string `db:"action"`
	Forced        bool   `db:"forced"`
	Fallback      bool   `db:"fallback"`
	NearEnd       bool   `db:"near_end"`
	Ranking       string `db:"ranking_json"`
	Eliminations  string `db:"eliminations_json"`
	Contributions string `db:"contributions_json"`
	AdvanceError  string `db:"advance_error"`
}

// BaseRow is one stored base decision.
type BaseRow struct {
	Tick   int     `db:"tick"`
	Player string  `db:"player"`
	BaseID string  `db:"base_id"`
	Action string  `db:"action"`
	Reason string  `db:"reason"`
	Weight float64 `db:"weight"`
}

// OpenStore opens or creates a SQLite database at path and starts a new run
// tagged with the controller configuration version.
func OpenStore(path, configVersion string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn, runID: uuid.NewString()}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if _, err := conn.Exec(
		"INSERT INTO runs (id, config_version, started_at) VALUES (?, ?, ?)",
		s.runID, configVersion, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("insert run: %w", err)
	}

	return s, nil
}

// RunID identifies the rows written through this store.
func (s *Store) RunID() string { return s.runID }

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		config_version TEXT NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ticks (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		player TEXT NOT NULL,
		bank REAL NOT NULL,
		units INTEGER NOT NULL,
		bases INTEGER NOT NULL,
		PRIMARY KEY (run_id, player, tick)
	);

	CREATE TABLE IF NOT EXISTS unit_decisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		player TEXT NOT NULL,
		seq INTEGER NOT NULL,
		unit_id TEXT NOT NULL,
		action TEXT NOT NULL,
		forced INTEGER NOT NULL,
		fallback INTEGER NOT NULL,
		near_end INTEGER NOT NULL,
		ranking_json TEXT NOT NULL,
		eliminations_json TEXT NOT NULL,
		contributions_json TEXT NOT NULL,
		advance_error TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS base_decisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		player TEXT NOT NULL,
		base_id TEXT NOT NULL,
		action TEXT NOT NULL,
		reason TEXT NOT NULL,
		weight REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_unit_decisions_tick ON unit_decisions(run_id, player, tick);
	CREATE INDEX IF NOT EXISTS idx_base_decisions_tick ON base_decisions(run_id, player, tick);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Record writes one tick trace in a single transaction.
func (s *Store) Record(tr tick.Trace) error {
	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO ticks (run_id, tick, player, bank, units, bases) VALUES (?, ?, ?, ?, ?, ?)",
		s.runID, tr.Tick, tr.Player, tr.Bank, len(tr.Units), len(tr.Bases),
	); err != nil {
		return fmt.Errorf("insert tick %d: %w", tr.Tick, err)
	}

	stmt, err := tx.Preparex(`INSERT INTO unit_decisions
		(run_id, tick, player, seq, unit_id, action, forced, fallback, near_end,
		 ranking_json, eliminations_json, contributions_json, advance_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare unit decisions: %w", err)
	}
	defer stmt.Close()

	for i, u := range tr.Units {
		rankingJSON, err := json.Marshal(u.Ranking)
		if err != nil {
			return fmt.Errorf("marshal ranking of %s: %w", u.UnitID, err)
		}
		elimJSON, err := json.Marshal(u.Eliminations)
		if err != nil {
			return fmt.Errorf("marshal eliminations of %s: %w", u.UnitID, err)
		}
		contribJSON, err := json.Marshal(u.Contributions)
		if err != nil {
			return fmt.Errorf("marshal contributions of %s: %w", u.UnitID, err)
		}

		_, err = stmt.Exec(
			s.runID, tr.Tick, tr.Player, i, u.UnitID, u.Action.String(),
			u.Forced, u.Fallback, u.NearEnd,
			string(rankingJSON), string(elimJSON), string(contribJSON), u.AdvanceError,
		)
		if err != nil {
			return fmt.Errorf("insert unit decision %s: %w", u.UnitID, err)
		}
	}

	for _, b := range tr.Bases {
		_, err := tx.Exec(
			`INSERT INTO base_decisions (run_id, tick, player, base_id, action, reason, weight)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.runID, tr.Tick, tr.Player, b.BaseID, b.Action.String(), string(b.Reason), b.Weight,
		)
		if err != nil {
			return fmt.Errorf("insert base decision %s: %w", b.BaseID, err)
		}
	}

	return tx.Commit()
}

// Ticks returns the stored ticks of a run in tick order.
func (s *Store) Ticks(runID string) ([]TickRow, error) {
	var rows []TickRow
	err := s.conn.Select(&rows,
		"SELECT tick, player, bank, units, bases FROM ticks WHERE run_id = ? ORDER BY tick, player",
		runID,
	)
	return rows, err
}

// UnitDecisions returns one player's unit decisions for a tick in processing order.
func (s *Store) UnitDecisions(runID, player string, tickNum int) ([]UnitRow, error) {
	var rows []UnitRow
	err := s.conn.Select(&rows,
		`SELECT tick, player, seq, unit_id, action, forced, fallback, near_end,
			ranking_json, eliminations_json, contributions_json, advance_error
		FROM unit_decisions WHERE run_id = ? AND player = ? AND tick = ? ORDER BY seq`,
		runID, player, tickNum,
	)
	return rows, err
}

// BaseDecisions returns one player's base decisions for a tick.
func (s *Store) BaseDecisions(runID, player string, tickNum int) ([]BaseRow, error) {
	var rows []BaseRow
	err := s.conn.Select(&rows,
		`SELECT tick, player, base_id, action, reason, weight
		FROM base_decisions WHERE run_id = ? AND player = ? AND tick = ? ORDER BY base_id`,
		runID, player, tickNum,
	)
	return rows, err
}

// ConfigVersion returns the configuration version a run was recorded with.
func (s *Store) ConfigVersion(runID string) (string, error) {
	var v string
	err := s.conn.Get(&v, "SELECT config_version FROM runs WHERE id = ?", runID)
	return v, err
}
