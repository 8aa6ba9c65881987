package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/mllib/pkg/errors"
)

// WriterTo is implemented by models that can serialise themselves.
type WriterTo interface {
	SaveTo(w io.Writer) error
}

// ReaderFrom is implemented by models that can restore themselves.
type ReaderFrom interface {
	LoadFrom(r io.Reader) error
}

// SaveModel はモデルをファイルに保存する
//
// 使用例:
//
//	err := model.SaveModel(dt, "tree.gob")
func SaveModel(m WriterTo, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create file %s", filename)
	}
	defer file.Close()

	if err := m.SaveTo(file); err != nil {
		return err
	}
	return errors.Wrap(file.Sync(), "failed to flush model file")
}

// LoadModel はファイルからモデルを読み込む
func LoadModel(m ReaderFrom, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open file %s", filename)
	}
	defer file.Close()

	return m.LoadFrom(file)
}

// SaveModelToWriter はスナップショット（gobでエンコード可能な値）をio.Writerに保存する
func SaveModelToWriter(snapshot interface{}, w io.Writer) error {
	encoder := gob.NewEncoder(w)
	if err := encoder.Encode(snapshot); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader はio.Readerからスナップショットを読み込む
//
// パラメータ:
//   - snapshot: 読み込み先（ポインタ）
//   - r: 読み込み元
func LoadModelFromReader(snapshot interface{}, r io.Reader) error {
	decoder := gob.NewDecoder(r)
	if err := decoder.Decode(snapshot); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
