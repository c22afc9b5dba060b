package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// UnixMillis はJSON上ではUNIXエポックからのミリ秒（数値）として表現される時刻。
// 永続化ドキュメントの ts / createdAt / lastSeenAt に使用する。
type UnixMillis struct {
	time.Time
}

// MillisOf はtime.TimeをUnixMillisに変換する。
func MillisOf(t time.Time) UnixMillis {
	return UnixMillis{Time: t}
}

// MarshalJSON はミリ秒の整数として書き出す。
func (m UnixMillis) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, m.UnixMilli(), 10), nil
}

// UnmarshalJSON はミリ秒の数値を読み込む。小数部は切り捨てる。
func (m *UnixMillis) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		m.Time = time.Time{}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid millisecond timestamp %s: %w", b, err)
	}
	if i, err := n.Int64(); err == nil {
		m.Time = time.UnixMilli(i)
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("invalid millisecond timestamp %s: %w", b, err)
	}
	m.Time = time.UnixMilli(int64(f))
	return nil
}
