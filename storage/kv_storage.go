package storage

import (
	"io"

	"github.com/cznic/kv"
)

type kvStorage struct {
	db *kv.DB
}

// 打开或者创建KV数据库
// 当path指向的数据库存在时打开该数据库，否则尝试在该路径处创建新数据库
func openOrCreateKv(path string, options *kv.Options) (*kv.DB, error) {
	db, errOpen := kv.Open(path, options)
	if errOpen != nil {
		var errCreate error
		db, errCreate = kv.Create(path, options)
		if errCreate != nil {
			return db, errCreate
		}
	}
	return db, nil
}

func openKVStorage(path string) (Storage, error) {
	db, err := openOrCreateKv(path, &kv.Options{})
	if err != nil {
		return nil, err
	}
	return &kvStorage{db}, nil
}

func (s *kvStorage) WALName() string {
	return s.db.WALName()
}

func (s *kvStorage) Set(k []byte, v []byte) error {
	return s.db.Set(k, v)
}

func (s *kvStorage) Get(k []byte) ([]byte, error) {
	return s.db.Get(nil, k)
}

func (s *kvStorage) Delete(k []byte) error {
	return s.db.Delete(k)
}

func (s *kvStorage) ForEach(fn func(k, v []byte) error) error {
	iter, err := s.db.SeekFirst()
	if err == io.EOF {
		return nil
	} else if err != nil {
		return err
	}
	for {
		key, value, err := iter.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *kvStorage) Close() error {
	return s.db.Close()
}
