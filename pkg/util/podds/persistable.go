package podds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/richard-senior/podds-au/internal/logger"
	_ "modernc.org/sqlite"
)

// Persistable interface defines methods that persistent objects must implement
type Persistable interface {
	GetTableName() string
	GetPrimaryKey() map[string]interface{}
	SetPrimaryKey(map[string]interface{}) error
	BeforeSave() error
	AfterSave() error
	BeforeDelete() error
	AfterDelete() error
}

// afterLoader is implemented by objects that need to rebuild fields after a read
type afterLoader interface {
	AfterLoad() error
}

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ErrNotFound is returned by FindByPrimaryKey when no row matches
var ErrNotFound = errors.New("record not found")

// Store is the sqlite backed persistence of match records and teams
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens (creating if needed) the sqlite database at path and migrates it.
// ":memory:" gives a private in-memory database.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("Database initialized successfully", path)
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Migrate creates all necessary database tables
func (s *Store) Migrate(ctx context.Context) error {
	logger.Debug("Creating database tables")
	if err := s.CreateTable(ctx, &MatchRecord{}); err != nil {
		return fmt.Errorf("failed to create match table: %w", err)
	}
	if err := s.CreateTable(ctx, &Team{}); err != nil {
		return fmt.Errorf("failed to create team table: %w", err)
	}
	return nil
}

// CreateTable creates a table for the given persistable object using struct tags
func (s *Store) CreateTable(ctx context.Context, obj Persistable) error {
	tableName := obj.GetTableName()
	createSQL := generateCreateTableSQL(obj, tableName)
	logger.Debug("Creating table with SQL", createSQL)

	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	for _, query := range generateIndexSQL(obj, tableName) {
		logger.Debug("Creating index with SQL", query)
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			logger.Warn("Failed to create index", err)
		}
	}
	return nil
}

// persistedFields walks the exported, dbtype tagged fields of obj
func persistedFields(t reflect.Type, fn func(i int, field reflect.StructField, column string)) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Tag.Get("dbtype") == "" {
			continue
		}
		column := field.Tag.Get("column")
		if column == "" {
			column = strings.ToLower(field.Name)
		}
		fn(i, field, column)
	}
}

func structOf(obj interface{}) (reflect.Value, reflect.Type) {
	v := reflect.ValueOf(obj)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return v, v.Type()
}

// generateCreateTableSQL generates CREATE TABLE SQL from struct tags
func generateCreateTableSQL(obj interface{}, tableName string) string {
	_, objType := structOf(obj)

	var columns []string
	var primaryKeys []string

	persistedFields(objType, func(_ int, field reflect.StructField, column string) {
		dbType := field.Tag.Get("dbtype")
		if field.Tag.Get("primary") == "true" {
			primaryKeys = append(primaryKeys, column)
			dbType = strings.TrimSpace(strings.ReplaceAll(dbType, "PRIMARY KEY", ""))
		}
		columns = append(columns, fmt.Sprintf("%s %s", column, dbType))
	})

	if len(primaryKeys) > 0 {
		columns = append(columns, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(primaryKeys, ", ")))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", tableName, strings.Join(columns, ", "))
}

// generateIndexSQL generates index creation SQL from struct tags
func generateIndexSQL(obj interface{}, tableName string) []string {
	_, objType := structOf(obj)

	var indexSQL []string
	persistedFields(objType, func(_ int, field reflect.StructField, column string) {
		if field.Tag.Get("index") == "" {
			return
		}
		indexName := fmt.Sprintf("idx_%s_%s", tableName, column)
		indexSQL = append(indexSQL, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", indexName, tableName, column))
	})
	return indexSQL
}

// Save persists the object to the database (INSERT or UPDATE)
func (s *Store) Save(ctx context.Context, obj Persistable) error {
	return save(ctx, s.db, obj)
}

func save(ctx context.Context, db execer, obj Persistable) error {
	if err := obj.BeforeSave(); err != nil {
		return fmt.Errorf("before save hook failed: %w", err)
	}

	exists, err := exists(ctx, db, obj)
	if err != nil {
		return fmt.Errorf("failed to check existence: %w", err)
	}
	if exists {
		err = update(ctx, db, obj)
	} else {
		err = insert(ctx, db, obj)
	}
	if err != nil {
		return err
	}

	if err := obj.AfterSave(); err != nil {
		return fmt.Errorf("after save hook failed: %w", err)
	}
	return nil
}

// insert adds a new record to the database
func insert(ctx context.Context, db execer, obj Persistable) error {
	tableName := obj.GetTableName()
	columns, placeholders, values := getInsertData(obj)

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tableName, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	logger.Debug("Insert SQL", query)

	if _, err := db.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", tableName, err)
	}
	return nil
}

// update modifies an existing record in the database
func update(ctx context.Context, db execer, obj Persistable) error {
	tableName := obj.GetTableName()
	setPairs, values := getUpdateData(obj)

	whereClause, whereValues := buildWhereClause(obj.GetPrimaryKey())
	values = append(values, whereValues...)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", tableName, strings.Join(setPairs, ", "), whereClause)
	logger.Debug("Update SQL", query)

	if _, err := db.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("failed to update %s: %w", tableName, err)
	}
	return nil
}

// getInsertData extracts column names, placeholders, and values for INSERT
func getInsertData(obj interface{}) ([]string, []string, []interface{}) {
	objValue, objType := structOf(obj)

	var columns []string
	var placeholders []string
	var values []interface{}
	persistedFields(objType, func(i int, _ reflect.StructField, column string) {
		columns = append(columns, column)
		placeholders = append(placeholders, "?")
		values = append(values, dbValue(objValue.Field(i)))
	})
	return columns, placeholders, values
}

// getUpdateData extracts SET pairs and values for UPDATE, skipping primary keys
func getUpdateData(obj interface{}) ([]string, []interface{}) {
	objValue, objType := structOf(obj)

	var setPairs []string
	var values []interface{}
	persistedFields(objType, func(i int, field reflect.StructField, column string) {
		if field.Tag.Get("primary") == "true" {
			return
		}
		setPairs = append(setPairs, fmt.Sprintf("%s = ?", column))
		values = append(values, dbValue(objValue.Field(i)))
	})
	return setPairs, values
}

// dbValue unwraps pointers and named string types into plain driver values
func dbValue(v reflect.Value) interface{} {
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return nil
		}
		return dbValue(v.Elem())
	case reflect.String:
		return v.String()
	}
	return v.Interface()
}

// getSelectData extracts column names and scan destinations for SELECT
func getSelectData(obj interface{}) ([]string, []interface{}) {
	objValue, objType := structOf(obj)

	var columns []string
	var destinations []interface{}
	persistedFields(objType, func(i int, _ reflect.StructField, column string) {
		columns = append(columns, column)
		destinations = append(destinations, objValue.Field(i).Addr().Interface())
	})
	return columns, destinations
}

// Exists checks if the object exists in the database
func (s *Store) Exists(ctx context.Context, obj Persistable) (bool, error) {
	return exists(ctx, s.db, obj)
}

func exists(ctx context.Context, db execer, obj Persistable) (bool, error) {
	tableName := obj.GetTableName()
	whereClause, values := buildWhereClause(obj.GetPrimaryKey())

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", tableName, whereClause)

	var count int
	if err := db.QueryRowContext(ctx, query, values...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check existence in %s: %w", tableName, err)
	}
	return count > 0, nil
}

// Delete removes the object from the database
func (s *Store) Delete(ctx context.Context, obj Persistable) error {
	if err := obj.BeforeDelete(); err != nil {
		return fmt.Errorf("before delete hook failed: %w", err)
	}

	tableName := obj.GetTableName()
	whereClause, values := buildWhereClause(obj.GetPrimaryKey())

	query := fmt.Sprintf("DELETE FROM %s WHERE %s", tableName, whereClause)
	if _, err := s.db.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", tableName, err)
	}

	if err := obj.AfterDelete(); err != nil {
		return fmt.Errorf("after delete hook failed: %w", err)
	}
	return nil
}

// FindByPrimaryKey loads obj in place from the row matching primaryKey
func (s *Store) FindByPrimaryKey(ctx context.Context, obj Persistable, primaryKey map[string]interface{}) error {
	tableName := obj.GetTableName()
	columns, destinations := getSelectData(obj)
	whereClause, values := buildWhereClause(primaryKey)

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(columns, ", "), tableName, whereClause)
	logger.Debug("FindByPrimaryKey SQL", query)

	err := s.db.QueryRowContext(ctx, query, values...).Scan(destinations...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", tableName, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to scan row from %s: %w", tableName, err)
	}
	if l, ok := obj.(afterLoader); ok {
		return l.AfterLoad()
	}
	return nil
}

// FindAll retrieves all records of the given type
func (s *Store) FindAll(ctx context.Context, obj Persistable) ([]interface{}, error) {
	return s.FindWhere(ctx, obj, "1 = 1")
}

// FindWhere executes a custom WHERE query, the clause may carry ORDER BY
func (s *Store) FindWhere(ctx context.Context, obj Persistable, whereClause string, args ...interface{}) ([]interface{}, error) {
	tableName := obj.GetTableName()
	columns, _ := getSelectData(obj)

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(columns, ", "), tableName, whereClause)
	logger.Debug("FindWhere SQL", query)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", tableName, err)
	}
	defer rows.Close()

	_, objType := structOf(obj)

	var results []interface{}
	for rows.Next() {
		newObj := reflect.New(objType).Interface()
		_, destinations := getSelectData(newObj)
		if err := rows.Scan(destinations...); err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", tableName, err)
		}
		if l, ok := newObj.(afterLoader); ok {
			if err := l.AfterLoad(); err != nil {
				return nil, err
			}
		}
		results = append(results, newObj)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows from %s: %w", tableName, err)
	}
	return results, nil
}

// BulkSave saves multiple objects in one transaction
func (s *Store) BulkSave(ctx context.Context, objects []Persistable) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, obj := range objects {
		if err := save(ctx, tx, obj); err != nil {
			return fmt.Errorf("failed to save object: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// buildWhereClause builds a WHERE clause from a primary key map, columns in name order
func buildWhereClause(primaryKey map[string]interface{}) (string, []interface{}) {
	keys := make([]string, 0, len(primaryKey))
	for column := range primaryKey {
		keys = append(keys, column)
	}
	sort.Strings(keys)

	conditions := make([]string, 0, len(keys))
	values := make([]interface{}, 0, len(keys))
	for _, column := range keys {
		conditions = append(conditions, fmt.Sprintf("%s = ?", column))
		values = append(values, primaryKey[column])
	}
	return strings.Join(conditions, " AND "), values
}
