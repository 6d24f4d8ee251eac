// Package correlate 把异步检测到的SPC事件按最近时间戳关联到采样记录上
// 并导出为一行一个样本的CSV文件
package correlate

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
)

// DefaultFileName 未指定输出路径时使用的文件名
const DefaultFileName = "goaxis_recording.csv"

// eventSeparator 同一样本上多个事件的分隔符
const eventSeparator = "|"

// ErrNoSamples 没有可导出的样本
var ErrNoSamples = errors.New("没有可导出的样本")

// IOError 导出文件无法写入
type IOError struct {
	Path string
	Err  error
}

// Error 实现error接口
func (e *IOError) Error() string {
	return fmt.Sprintf("写入导出文件 %s 失败: %v", e.Path, e.Err)
}

// Unwrap 返回底层错误
func (e *IOError) Unwrap() error {
	return e.Err
}

// DefaultPath 返回默认的导出路径
func DefaultPath() string {
	return filepath.Join(os.TempDir(), DefaultFileName)
}

// Merge 把事件关联到时间上最近的样本
// samples 必须按时间非递减排列（单生产者追加保证了这一点）
// 与最近样本的时间差不小于 tolerance 的事件被丢弃
func Merge(samples []core.Sample, events []core.AnomalyEvent, tolerance time.Duration) ([]core.MergedRecord, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	kinds := make([][]string, len(samples))
	details := make([][]string, len(samples))

	for _, event := range events {
		index, ok := nearestSample(samples, event.Timestamp, tolerance)
		if !ok {
			continue
		}
		kinds[index] = append(kinds[index], string(event.Kind))
		details[index] = append(details[index], event.Detail)
	}

	records := make([]core.MergedRecord, len(samples))
	for i, s := range samples {
		record := core.MergedRecord{
			Timestamp: s.Timestamp,
			Axis:      s.Axis,
			Kinds:     strings.Join(kinds[i], eventSeparator),
			Details:   strings.Join(details[i], eventSeparator),
			Error:     s.Error,
		}
		if s.HasValue() {
			record.Value = FormatValue(s.Value)
		}
		records[i] = record
	}
	return records, nil
}

// nearestSample 二分查找插入点，比较前后两个候选样本
// 时间差相等时取较早的样本
func nearestSample(samples []core.Sample, ts time.Time, tolerance time.Duration) (int, bool) {
	j := sort.Search(len(samples), func(i int) bool {
		return !samples[i].Timestamp.Before(ts)
	})

	best := -1
	var bestDiff time.Duration
	for _, c := range []int{j - 1, j} {
		if c < 0 || c >= len(samples) {
			continue
		}
		diff := absDuration(samples[c].Timestamp.Sub(ts))
		if best == -1 || diff < bestDiff {
			best = c
			bestDiff = diff
		}
	}

	if best == -1 || bestDiff >= tolerance {
		return 0, false
	}
	return best, true
}

// absDuration 返回时长的绝对值
func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// FormatTimestamp 把时间格式化为带6位小数的Unix秒
func FormatTimestamp(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/int(time.Microsecond))
}

// FormatValue 以最短无损形式格式化数值
func FormatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
