package storage

import (
	"time"

	"github.com/boltdb/bolt"
)

var huoyanBucket = []byte("huoyan")

type boltStorage struct {
	db *bolt.DB
}

func openBoltStorage(path string) (Storage, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 3600 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(huoyanBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &boltStorage{db}, nil
}

// bolt 没有预写日志，返回数据文件路径
func (s *boltStorage) WALName() string {
	return s.db.Path()
}

func (s *boltStorage) Set(k []byte, v []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(huoyanBucket).Put(k, v)
	})
}

func (s *boltStorage) Get(k []byte) (b []byte, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		// bolt 返回的切片只在事务内有效
		if v := tx.Bucket(huoyanBucket).Get(k); v != nil {
			b = append([]byte{}, v...)
		}
		return nil
	})
	return
}

func (s *boltStorage) Delete(k []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(huoyanBucket).Delete(k)
	})
}

func (s *boltStorage) ForEach(fn func(k, v []byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(huoyanBucket).ForEach(fn)
	})
}

func (s *boltStorage) Close() error {
	return s.db.Close()
}
