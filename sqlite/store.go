package sqlite

import (
	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"

	"bsid.es/despierta"
	"bsid.es/despierta/sqlite/migration"
)

// Store persists alarms in a SQLite database file. It holds a single
// connection: the application mutates alarms from one goroutine at a time.
type Store struct {
	conn *sqlite.Conn
}

// Open opens the database at path, creating it if needed, and applies
// pending migrations.
func Open(path string) (*Store, error) {
	conn, err := sqlite.OpenConn(path, 0)
	if err != nil {
		return nil, despierta.Errorf(despierta.ErrWrite, "open %s: %v", path, err)
	}
	if err := Migrate(conn, migration.Scripts); err != nil {
		conn.Close()
		return nil, despierta.Errorf(despierta.ErrCorrupt, "migrate %s: %v", path, err)
	}
	return &Store{conn: conn}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

var _ despierta.Store = (*Store)(nil)

func (s *Store) Load() ([]despierta.Alarm, error) {
	var alarms []despierta.Alarm
	err := sqlitex.Exec(s.conn,
		"select id, hour, minute, enabled, label, repeat from alarm order by position",
		func(stmt *sqlite.Stmt) error {
			alarms = append(alarms, despierta.Alarm{
				ID:      stmt.ColumnText(0),
				Time:    despierta.TimeOfDay{Hour: stmt.ColumnInt(1), Minute: stmt.ColumnInt(2)},
				Enabled: stmt.ColumnInt(3) != 0,
				Label:   stmt.ColumnText(4),
				Repeat:  despierta.Weekdays(stmt.ColumnInt(5)),
			})
			return nil
		})
	if err != nil {
		return nil, despierta.Errorf(despierta.ErrCorrupt, "load alarms: %v", err)
	}
	for i := range alarms {
		if err := alarms[i].Validate(); err != nil {
			return nil, despierta.Errorf(despierta.ErrCorrupt, "alarm %d: %v", i, err)
		}
	}
	return alarms, nil
}

// Save rewrites the whole collection in one savepoint.
func (s *Store) Save(alarms []despierta.Alarm) (err error) {
	release := sqlitex.Save(s.conn)
	defer release(&err)

	if err = sqlitex.Exec(s.conn, "delete from alarm", nil); err != nil {
		return despierta.Errorf(despierta.ErrWrite, "clear alarms: %v", err)
	}
	for i, a := range alarms {
		err = sqlitex.Exec(s.conn,
			"insert into alarm (position, id, hour, minute, enabled, label, repeat)"+
				" values (?, ?, ?, ?, ?, ?, ?)",
			nil,
			i, a.ID, a.Time.Hour, a.Time.Minute, boolInt(a.Enabled), a.Label, int64(a.Repeat),
		)
		if err != nil {
			return despierta.Errorf(despierta.ErrWrite, "insert alarm %s: %v", a.ID, err)
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
