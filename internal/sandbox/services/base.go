package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tourdesk/internal/events"
)

var (
	ErrUnknownColumn   = errors.New("unknown column")
	ErrUnknownRelation = errors.New("unknown relation")
)

// ListQuery describes one collection read. Page 0 returns every row.
type ListQuery struct {
	Page     int
	PerPage  int
	Filters  map[string]string
	Sort     string
	Order    string
	Includes []string
}

// BaseService defines the CRUD operations shared by every sandbox resource
type BaseService[T any] interface {
	Create(ctx context.Context, entity *T) error
	Get(ctx context.Context, id uint64, includes ...string) (*T, error)
	List(ctx context.Context, q ListQuery) ([]T, int64, error)
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id uint64) error
}

// BaseServiceImpl implements BaseService on gorm. Deletes are soft: models
// embed gorm.DeletedAt so deleted rows drop out of every query.
type BaseServiceImpl[T any] struct {
	db    *gorm.DB
	bus   *events.EventBus
	table string
}

func GormTableName(db *gorm.DB, v any) string {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return db.NamingStrategy.TableName(t.Name())
}

// NewBaseService creates a service that emits <table>.created|updated|deleted
// on bus, or on the default bus when bus is nil.
func NewBaseService[T any](db *gorm.DB, bus *events.EventBus) BaseService[T] {
	if bus == nil {
		bus = events.Default()
	}
	var model T
	return &BaseServiceImpl[T]{
		db:    db,
		bus:   bus,
		table: GormTableName(db, model),
	}
}

func (s *BaseServiceImpl[T]) emit(action string, data interface{}) {
	s.bus.Emit(fmt.Sprintf("%s.%s", s.table, action), data)
}

func (s *BaseServiceImpl[T]) parse() (*gorm.Statement, error) {
	stmt := &gorm.Statement{DB: s.db}
	if err := stmt.Parse(new(T)); err != nil {
		return nil, err
	}
	return stmt, nil
}

func jsonName(tag string) string {
	return strings.SplitN(tag, ",", 2)[0]
}

// column resolves a json or struct field name to its database column
func (s *BaseServiceImpl[T]) column(name string) (string, error) {
	stmt, err := s.parse()
	if err != nil {
		return "", err
	}
	if f := stmt.Schema.LookUpField(name); f != nil && f.DBName != "" {
		return f.DBName, nil
	}
	for _, f := range stmt.Schema.Fields {
		if f.DBName != "" && jsonName(f.Tag.Get("json")) == name {
			return f.DBName, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownColumn, name)
}

// applyIncludes preloads relations named by struct field or json name
func (s *BaseServiceImpl[T]) applyIncludes(query *gorm.DB, includes ...string) (*gorm.DB, error) {
	if len(includes) == 0 {
		return query, nil
	}
	stmt, err := s.parse()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(includes))
	for _, include := range includes {
		name := ""
		for relName, rel := range stmt.Schema.Relationships.Relations {
			if strings.EqualFold(relName, include) || jsonName(rel.Field.Tag.Get("json")) == include {
				name = relName
				break
			}
		}
		if name == "" {
			return nil, fmt.Errorf("%w %q", ErrUnknownRelation, include)
		}
		if !seen[name] {
			seen[name] = true
			query = query.Preload(name)
		}
	}
	return query, nil
}

func (s *BaseServiceImpl[T]) Create(ctx context.Context, entity *T) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(entity).Error; err != nil {
		return err
	}
	s.emit("created", entity)
	return nil
}

func (s *BaseServiceImpl[T]) Get(ctx context.Context, id uint64, includes ...string) (*T, error) {
	var entity T
	query, err := s.applyIncludes(s.db.WithContext(ctx), includes...)
	if err != nil {
		return nil, err
	}
	if err := query.First(&entity, id).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

func (s *BaseServiceImpl[T]) List(ctx context.Context, q ListQuery) ([]T, int64, error) {
	var (
		entities []T
		total    int64
	)

	query := s.db.WithContext(ctx).Model(new(T))
	for key, value := range q.Filters {
		col, err := s.column(key)
		if err != nil {
			return nil, 0, err
		}
		query = query.Where(clause.Eq{Column: clause.Column{Name: col}, Value: value})
	}

	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if q.Sort != "" {
		col, err := s.column(q.Sort)
		if err != nil {
			return nil, 0, err
		}
		query = query.Order(clause.OrderByColumn{
			Column: clause.Column{Name: col},
			Desc:   strings.EqualFold(q.Order, "desc"),
		})
	} else {
		query = query.Order("id")
	}

	if q.Page > 0 && q.PerPage > 0 {
		query = query.Offset((q.Page - 1) * q.PerPage).Limit(q.PerPage)
	}

	query, err := s.applyIncludes(query, q.Includes...)
	if err != nil {
		return nil, 0, err
	}
	if err := query.Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return entities, total, nil
}

func (s *BaseServiceImpl[T]) Update(ctx context.Context, entity *T) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(entity).Error; err != nil {
		return err
	}
	s.emit("updated", entity)
	return nil
}

func (s *BaseServiceImpl[T]) Delete(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	s.emit("deleted", id)
	return nil
}
