package model

import (
	"encoding/gob"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// SaveModel はモデルをファイルに保存する
//
// 同じディレクトリの一時ファイルに書き込んでからリネームするため、
// 途中で失敗しても既存のファイルは壊れない。
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScalerDefault()
//	// ... scaler.Fit(X) ...
//	err := model.SaveModel(scaler, "artifacts/scaler.gob")
func SaveModel(model interface{}, filename string) error {
	return WriteFileAtomic(filename, func(w io.Writer) error {
		return SaveModelToWriter(model, w)
	})
}

// LoadModel はファイルからモデルを読み込む
//
// 使用例:
//
//	var scaler preprocessing.StandardScaler
//	err := model.LoadModel(&scaler, "artifacts/scaler.gob")
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	return LoadModelFromReader(model, file)
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(model interface{}, w io.Writer) error {
	encoder := gob.NewEncoder(w)
	if err := encoder.Encode(model); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
func LoadModelFromReader(model interface{}, r io.Reader) error {
	decoder := gob.NewDecoder(r)
	if err := decoder.Decode(model); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}

// WriteFileAtomic は write の出力を一時ファイルに書き、成功した場合のみ
// filename にリネームする。失敗時は一時ファイルを削除する。
func WriteFileAtomic(filename string, write func(w io.Writer) error) error {
	var b FileBatch
	if err := b.Stage(filename, write); err != nil {
		return err
	}
	return b.Commit()
}

// FileBatch は複数のファイルを一時ファイルとして書き終えてから、まとめて
// リネームする。Stage がひとつでも失敗した場合は Discard で全て破棄できる。
type FileBatch struct {
	staged []stagedFile
}

type stagedFile struct {
	tmp    string
	target string
}

// Stage は write の出力を filename と同じディレクトリの一時ファイルに書く。
// filename はまだ変更されない。
func (b *FileBatch) Stage(filename string, write func(w io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrap(err, "failed to sync temp file")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp file")
	}
	b.staged = append(b.staged, stagedFile{tmp: tmp.Name(), target: filename})
	return nil
}

// Commit はステージした順にリネームする。リネームに失敗した場合、
// 残りの一時ファイルは削除される。
func (b *FileBatch) Commit() error {
	for i, f := range b.staged {
		if err := os.Rename(f.tmp, f.target); err != nil {
			b.staged = b.staged[i:]
			b.Discard()
			return errors.Wrapf(err, "failed to rename into %s", f.target)
		}
	}
	b.staged = nil
	return nil
}

// Discard はコミットされていない一時ファイルを全て削除する。
func (b *FileBatch) Discard() {
	for _, f := range b.staged {
		_ = os.Remove(f.tmp)
	}
	b.staged = nil
}
