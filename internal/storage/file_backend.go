package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ac-server/internal/model"

	"go.uber.org/zap"
)

const whitelistFlagFile = "whitelist_enabled.json"

// ErrInvalidKey 记录键不能作为文件名
var ErrInvalidKey = errors.New("记录键不合法")

// FileBackend 文件存储：每个集合一个目录，每条记录一个JSON文件
type FileBackend struct {
	root string
	log  *zap.Logger
}

// NewFileBackend 创建文件存储，并确保各集合目录存在
func NewFileBackend(root string, log *zap.Logger) (*FileBackend, error) {
	for _, c := range AllCollections() {
		if err := os.MkdirAll(filepath.Join(root, string(c)), 0o755); err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
	}
	return &FileBackend{root: root, log: log.Named("file-store")}, nil
}

// Name 后端名称
func (b *FileBackend) Name() string { return "file" }

// Root 数据根目录
func (b *FileBackend) Root() string { return b.root }

// LoadAll 读取全部集合；单个文件损坏只记录日志并跳过
func (b *FileBackend) LoadAll(ctx context.Context) (*Dataset, error) {
	data := &Dataset{}
	var err error
	if data.Admins, err = loadDir[model.Admin](b, Admins); err != nil {
		return nil, err
	}
	if data.Announcements, err = loadDir[model.Announcement](b, Announcements); err != nil {
		return nil, err
	}
	if data.Compensations, err = loadDir[model.Compensation](b, Compensations); err != nil {
		return nil, err
	}
	if data.Whitelist, err = loadDir[model.WhitelistEntry](b, Whitelist); err != nil {
		return nil, err
	}
	if data.ClaimLogs, err = loadDir[model.ClaimLog](b, ClaimLogs); err != nil {
		return nil, err
	}
	if data.Users, err = loadDir[model.User](b, Users); err != nil {
		return nil, err
	}
	if data.EmailCodes, err = loadDir[model.EmailCode](b, EmailCodes); err != nil {
		return nil, err
	}
	data.WhitelistEnabled = b.loadWhitelistFlag()
	return data, nil
}

// SaveAll 每个集合先删除全部旧文件再逐条写入
func (b *FileBackend) SaveAll(ctx context.Context, data *Dataset) error {
	var errs []error
	errs = append(errs, saveDir(b, Admins, data.Admins))
	errs = append(errs, saveDir(b, Announcements, data.Announcements))
	errs = append(errs, saveDir(b, Compensations, data.Compensations))
	errs = append(errs, saveDir(b, Whitelist, data.Whitelist))
	errs = append(errs, saveDir(b, ClaimLogs, data.ClaimLogs))
	errs = append(errs, saveDir(b, Users, data.Users))
	errs = append(errs, saveDir(b, EmailCodes, data.EmailCodes))
	errs = append(errs, b.SaveWhitelistEnabled(ctx, data.WhitelistEnabled))
	return errors.Join(errs...)
}

// Put 重写单条记录的文件
func (b *FileBackend) Put(ctx context.Context, rec model.Record) error {
	c, err := CollectionOf(rec)
	if err != nil {
		return err
	}
	return b.writeRecord(c, rec.RecordKey(), rec)
}

// Delete 删除单条记录的文件，文件不存在视为成功
func (b *FileBackend) Delete(ctx context.Context, c Collection, key string) error {
	path, err := b.recordPath(c, key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("删除记录文件失败: %w", err)
	}
	return nil
}

// SaveWhitelistEnabled 写入白名单开关
func (b *FileBackend) SaveWhitelistEnabled(ctx context.Context, enabled bool) error {
	return writeFileAtomic(filepath.Join(b.root, whitelistFlagFile), []byte(strconv.FormatBool(enabled)))
}

// Available 数据目录可访问
func (b *FileBackend) Available(ctx context.Context) bool {
	info, err := os.Stat(b.root)
	return err == nil && info.IsDir()
}

// Close 文件存储无需关闭
func (b *FileBackend) Close() error { return nil }

func (b *FileBackend) loadWhitelistFlag() bool {
	raw, err := os.ReadFile(filepath.Join(b.root, whitelistFlagFile))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			b.log.Warn("读取白名单开关失败", zap.Error(err))
		}
		return false
	}
	var enabled bool
	if err := json.Unmarshal(raw, &enabled); err != nil {
		b.log.Warn("白名单开关文件损坏，按关闭处理", zap.Error(err))
		return false
	}
	return enabled
}

func (b *FileBackend) recordPath(c Collection, key string) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(b.root, string(c), key+".json"), nil
}

func (b *FileBackend) writeRecord(c Collection, key string, rec interface{}) error {
	path, err := b.recordPath(c, key)
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化记录失败: %w", err)
	}
	return writeFileAtomic(path, raw)
}

// loadDir 解析目录下所有 .json 文件
func loadDir[T any](b *FileBackend, c Collection) ([]T, error) {
	dir := filepath.Join(b.root, string(c))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取目录 %s 失败: %w", c, err)
	}

	out := make([]T, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			b.log.Warn("读取记录文件失败", zap.String("collection", string(c)), zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			b.log.Warn("解析记录文件失败", zap.String("collection", string(c)), zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		if r, ok := any(&rec).(model.Record); !ok || r.RecordKey() == "" {
			b.log.Warn("记录缺少标识，已跳过", zap.String("collection", string(c)), zap.String("file", entry.Name()))
			continue
		}
		if n, ok := any(&rec).(normalizer); ok {
			n.Normalize()
		}
		out = append(out, rec)
	}
	return out, nil
}

// saveDir 删除旧文件后逐条写入
func saveDir[T model.Record](b *FileBackend, c Collection, records []T) error {
	dir := filepath.Join(b.root, string(c))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建目录 %s 失败: %w", c, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("读取目录 %s 失败: %w", c, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			b.log.Warn("删除旧记录文件失败", zap.String("collection", string(c)), zap.String("file", entry.Name()), zap.Error(err))
		}
	}

	var errs []error
	for i := range records {
		if err := b.writeRecord(c, records[i].RecordKey(), records[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// writeFileAtomic 先写临时文件再重命名，避免留下半个文件
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("写入文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("写入文件失败: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("重命名文件失败: %w", err)
	}
	return nil
}

func validKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, `/\`+"\x00")
}
