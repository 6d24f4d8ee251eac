// Package correlate CSV导出
package correlate

import (
	"encoding/csv"
	"io"
	"os"
	"time"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
)

// Header 导出文件的列，顺序固定
var Header = []string{"timestamp", "axis", "value", "spc_event", "spc_detail", "error"}

// WriteCSV 写出表头和全部记录
func WriteCSV(w io.Writer, records []core.MergedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			FormatTimestamp(r.Timestamp),
			r.Axis,
			r.Value,
			r.Kinds,
			r.Details,
			r.Error,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportFile 关联样本与事件并写入path，path为空时使用DefaultPath
// 只读取传入的快照，不修改调用方的数据
func ExportFile(path string, samples []core.Sample, events []core.AnomalyEvent, tolerance time.Duration) (string, error) {
	records, err := Merge(samples, events, tolerance)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = DefaultPath()
	}

	f, err := os.Create(path)
	if err != nil {
		return "", &IOError{Path: path, Err: err}
	}

	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return "", &IOError{Path: path, Err: err}
	}

	if err := f.Close(); err != nil {
		return "", &IOError{Path: path, Err: err}
	}
	return path, nil
}
