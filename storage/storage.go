package storage

import (
	"fmt"
	"sort"
)

const DEFAULT_STORAGE_ENGINE = "bolt"

var supportedStorage = map[string]func(path string) (Storage, error){
	"kv":   openKVStorage,
	"bolt": openBoltStorage,
}

func RegisterStorageEngine(name string, fn func(path string) (Storage, error)) {
	supportedStorage[name] = fn
}

// 已注册的存储引擎名，按字母序
func StorageEngines() []string {
	names := make([]string, 0, len(supportedStorage))
	for name := range supportedStorage {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// 键值存储。Get 在键不存在时返回 (nil, nil)
type Storage interface {
	Set(k, v []byte) error
	Get(k []byte) ([]byte, error)
	Delete(k []byte) error
	ForEach(fn func(k, v []byte) error) error
	Close() error
	WALName() string
}

// 打开或创建 path 处的数据库，wse 为空时使用默认引擎
func OpenStorage(path, wse string) (Storage, error) {
	if wse == "" {
		wse = DEFAULT_STORAGE_ENGINE
	}
	if fn, has := supportedStorage[wse]; has {
		return fn(path)
	}
	return nil, fmt.Errorf("unsupported storage engine %v", wse)
}
