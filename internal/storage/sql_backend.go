package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"ac-server/config"
	"ac-server/internal/model"
	"ac-server/pkg/db"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 200

// tableSpec 集合对应的表模型和删除用的键列
type tableSpec struct {
	proto     func() interface{}
	keyColumn string
}

var tables = map[Collection]tableSpec{
	Admins:        {proto: func() interface{} { return &model.Admin{} }, keyColumn: "username"},
	Announcements: {proto: func() interface{} { return &model.Announcement{} }, keyColumn: "id"},
	Compensations: {proto: func() interface{} { return &model.Compensation{} }, keyColumn: "id"},
	Whitelist:     {proto: func() interface{} { return &model.WhitelistEntry{} }, keyColumn: "player_uuid"},
	ClaimLogs:     {proto: func() interface{} { return &model.ClaimLog{} }, keyColumn: "id"},
	Users:         {proto: func() interface{} { return &model.User{} }, keyColumn: "username"},
	EmailCodes:    {proto: func() interface{} { return &model.EmailCode{} }, keyColumn: "id"},
}

// SQLBackend 关系型存储：每个集合一张表
type SQLBackend struct {
	orm    *gorm.DB
	driver string
	log    *zap.Logger
}

// OpenSQLBackend 连接数据库并幂等建表
func OpenSQLBackend(cfg config.DatabaseConfig, log *zap.Logger) (*SQLBackend, error) {
	orm, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}
	b, err := NewSQLBackend(orm, db.Driver(cfg.Driver), log)
	if err != nil {
		_ = db.Close(orm)
		return nil, err
	}
	return b, nil
}

// NewSQLBackend 基于已有连接创建后端
func NewSQLBackend(orm *gorm.DB, driver string, log *zap.Logger) (*SQLBackend, error) {
	models := []interface{}{&model.Setting{}}
	for _, c := range AllCollections() {
		models = append(models, tables[c].proto())
	}
	if err := db.EnsureTables(orm, models...); err != nil {
		return nil, err
	}
	return &SQLBackend{orm: orm, driver: driver, log: log.Named("sql-store")}, nil
}

// Name 后端名称
func (b *SQLBackend) Name() string { return "relational/" + b.driver }

// DB 底层连接
func (b *SQLBackend) DB() *gorm.DB { return b.orm }

// LoadAll 逐表读取；无法解析的行记录日志并跳过
func (b *SQLBackend) LoadAll(ctx context.Context) (*Dataset, error) {
	orm := b.orm.WithContext(ctx)
	data := &Dataset{}
	var err error
	if data.Admins, err = loadTable[model.Admin](orm, b.log); err != nil {
		return nil, err
	}
	if data.Announcements, err = loadTable[model.Announcement](orm, b.log); err != nil {
		return nil, err
	}
	if data.Compensations, err = loadTable[model.Compensation](orm, b.log); err != nil {
		return nil, err
	}
	if data.Whitelist, err = loadTable[model.WhitelistEntry](orm, b.log); err != nil {
		return nil, err
	}
	if data.ClaimLogs, err = loadTable[model.ClaimLog](orm, b.log); err != nil {
		return nil, err
	}
	if data.Users, err = loadTable[model.User](orm, b.log); err != nil {
		return nil, err
	}
	if data.EmailCodes, err = loadTable[model.EmailCode](orm, b.log); err != nil {
		return nil, err
	}
	if data.WhitelistEnabled, err = b.loadWhitelistFlag(orm); err != nil {
		return nil, err
	}
	return data, nil
}

// SaveAll 每张表在一个事务内先清空再批量插入，任何语句失败则回滚该表
func (b *SQLBackend) SaveAll(ctx context.Context, data *Dataset) error {
	orm := b.orm.WithContext(ctx)
	var errs []error
	errs = append(errs, replaceTable(orm, data.Admins))
	errs = append(errs, replaceTable(orm, data.Announcements))
	errs = append(errs, replaceTable(orm, data.Compensations))
	errs = append(errs, replaceTable(orm, data.Whitelist))
	errs = append(errs, replaceTable(orm, data.ClaimLogs))
	errs = append(errs, replaceTable(orm, data.Users))
	errs = append(errs, replaceTable(orm, data.EmailCodes))
	errs = append(errs, b.SaveWhitelistEnabled(ctx, data.WhitelistEnabled))
	return errors.Join(errs...)
}

// Put 单条记录upsert
func (b *SQLBackend) Put(ctx context.Context, rec model.Record) error {
	if _, err := CollectionOf(rec); err != nil {
		return err
	}
	err := b.orm.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(rec).Error
	if err != nil {
		return fmt.Errorf("写入记录失败: %w", err)
	}
	return nil
}

// Delete 按键列删除单条记录
func (b *SQLBackend) Delete(ctx context.Context, c Collection, key string) error {
	spec, ok := tables[c]
	if !ok {
		return fmt.Errorf("未知集合: %s", c)
	}
	err := b.orm.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: spec.keyColumn}, Value: key}).
		Delete(spec.proto()).Error
	if err != nil {
		return fmt.Errorf("删除记录失败: %w", err)
	}
	return nil
}

// SaveWhitelistEnabled 写入白名单开关
func (b *SQLBackend) SaveWhitelistEnabled(ctx context.Context, enabled bool) error {
	setting := &model.Setting{Key: model.SettingWhitelistEnabled, Value: strconv.FormatBool(enabled)}
	err := b.orm.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(setting).Error
	if err != nil {
		return fmt.Errorf("写入设置失败: %w", err)
	}
	return nil
}

// Available 数据库可连通
func (b *SQLBackend) Available(ctx context.Context) bool {
	return db.HealthCheck(b.orm) == nil
}

// Close 关闭连接
func (b *SQLBackend) Close() error {
	return db.Close(b.orm)
}

func (b *SQLBackend) loadWhitelistFlag(orm *gorm.DB) (bool, error) {
	var setting model.Setting
	err := orm.Where(clause.Eq{Column: clause.Column{Name: "setting_key"}, Value: model.SettingWhitelistEnabled}).
		Take(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("读取设置失败: %w", err)
	}
	enabled, err := strconv.ParseBool(setting.Value)
	if err != nil {
		b.log.Warn("白名单开关取值非法，按关闭处理", zap.String("value", setting.Value))
		return false, nil
	}
	return enabled, nil
}

// loadTable 逐行扫描，单行解析失败不影响其他行
func loadTable[T any](orm *gorm.DB, log *zap.Logger) ([]T, error) {
	rows, err := orm.Model(new(T)).Rows()
	if err != nil {
		return nil, fmt.Errorf("查询 %T 失败: %w", *new(T), err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var rec T
		if err := orm.ScanRows(rows, &rec); err != nil {
			log.Warn("解析数据行失败，已跳过", zap.String("type", fmt.Sprintf("%T", rec)), zap.Error(err))
			continue
		}
		if r, ok := any(&rec).(model.Record); !ok || r.RecordKey() == "" {
			log.Warn("数据行缺少标识，已跳过", zap.String("type", fmt.Sprintf("%T", rec)))
			continue
		}
		if n, ok := any(&rec).(normalizer); ok {
			n.Normalize()
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历 %T 失败: %w", *new(T), err)
	}
	return out, nil
}

// replaceTable 事务内 DELETE 全表后批量 INSERT
func replaceTable[T any](orm *gorm.DB, records []T) error {
	return orm.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(new(T)).Error; err != nil {
			return fmt.Errorf("清空 %T 失败: %w", *new(T), err)
		}
		if len(records) == 0 {
			return nil
		}
		rows := append([]T(nil), records...)
		if err := tx.CreateInBatches(&rows, insertBatchSize).Error; err != nil {
			return fmt.Errorf("批量写入 %T 失败: %w", *new(T), err)
		}
		return nil
	})
}
