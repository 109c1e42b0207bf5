package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/riskprep/pkg/errors"
)

// SaveSnapshot はスナップショットをgob形式でファイルに保存する
//
// 書き込み途中で中断しても既存のファイルが壊れないよう、一時ファイルに
// 書いてからリネームする。
//
// 使用例:
//
//	snap := t.Snapshot()
//	err := model.SaveSnapshot(snap, "tactic.gob")
func SaveSnapshot(v interface{}, filename string) error {
	tmp := filename + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	if err := SaveSnapshotToWriter(v, file); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		return errors.Wrap(err, "failed to close file")
	}
	return errors.Wrap(os.Rename(tmp, filename), "failed to replace snapshot")
}

// LoadSnapshot はファイルからスナップショットを読み込む
//
// パラメータ:
//   - v: 読み込み先（ポインタ）
//   - filename: 読み込み元のファイルパス
func LoadSnapshot(v interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()
	return LoadSnapshotFromReader(v, file)
}

// SaveSnapshotToWriter はスナップショットをio.Writerに保存する
func SaveSnapshotToWriter(v interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode snapshot")
	}
	return nil
}

// LoadSnapshotFromReader はio.Readerからスナップショットを読み込む
func LoadSnapshotFromReader(v interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(v); err != nil {
		return errors.Wrap(err, "failed to decode snapshot")
	}
	return nil
}
