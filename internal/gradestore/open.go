package gradestore

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"canvas-access/internal/gradestore/db"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Config locates a snapshot database, either a local sqlite file or a remote libsql
// server when Url is set.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

// OpenDB opens the database described by the config and creates the snapshot tables
// if they do not exist yet.
func (config Config) OpenDB() (*sql.DB, error) {
	var database *sql.DB
	var err error
	if config.Url == "" {
		database, err = openSqlite(config.File)
	} else {
		database, err = openLibsql(config.Url, config.AuthToken)
	}
	if err != nil {
		return nil, err
	}

	_, err = database.Exec(db.Schema)
	if err != nil {
		database.Close()
		return nil, wrapOpenDB(err)
	}
	return database, nil
}

func openSqlite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, wrapOpenDB(fmt.Errorf("neither a file nor a url was specified"))
	}
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	}

	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	database.SetMaxOpenConns(1)
	_, err = database.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		database.Close()
		return nil, wrapOpenDB(err)
	}
	return database, nil
}

func openLibsql(dbUrl, authToken string) (*sql.DB, error) {
	values := url.Values{}
	if authToken != "" {
		values.Add("authToken", authToken)
	}
	dsn := dbUrl
	if len(values) > 0 {
		dsn += "?" + values.Encode()
	}
	database, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, wrapOpenDB(err)
	}
	return database, nil
}

// ParseDSN turns a command line database argument into a config, urls with a scheme
// (libsql://, https://, ws://) point to a remote server and anything else is a file path.
func ParseDSN(dsn string) Config {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return Config{File: dsn}
	}
	if u.Scheme == "file" {
		return Config{File: strings.TrimPrefix(dsn, "file:")}
	}
	config := Config{Url: dsn}
	if token := u.Query().Get("authToken"); token != "" {
		query := u.Query()
		query.Del("authToken")
		u.RawQuery = query.Encode()
		config.Url = u.String()
		config.AuthToken = token
	}
	return config
}
