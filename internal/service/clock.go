package service

import "time"

// Clock 业务时钟
//
// 所有迟到/缺勤判定统一换算到配置的签到时区后比较，不依赖宿主机
// 本地时区。NowFn 仅供测试注入固定时刻。
type Clock struct {
	Location *time.Location
	NowFn    func() time.Time
}

// Now 返回签到时区下的当前时刻
func (c *Clock) Now() time.Time {
	if c.NowFn != nil {
		return c.NowFn().In(c.Location)
	}
	return time.Now().In(c.Location)
}
