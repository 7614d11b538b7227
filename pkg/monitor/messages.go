package monitor

import (
	"fmt"
	"strings"

	"pickupwatch/pkg/apple"
	"pickupwatch/pkg/config"
)

// StartupMessage lists the monitored products, pickup area and scan frequency.
func StartupMessage(products config.ProductSelection, area string, scanInterval int) string {
	lines := make([]string, 0, len(products))
	for i, part := range products.PartNumbers() {
		p := products[part]
		lines = append(lines, fmt.Sprintf("【%d】%s %s", i, p.Classification, p.Title))
	}
	return fmt.Sprintf("准备开始监测，商品信息如下：\n%s\n取货区域：%s\n扫描频次：%d秒/次",
		strings.Join(lines, "\n"), area, scanInterval)
}

// HitMessage lists every store and product title that can be picked up.
func HitMessage(attempt int, hits []apple.AvailabilityResult) string {
	lines := make([]string, 0, len(hits))
	for _, h := range hits {
		lines = append(lines, fmt.Sprintf("【%s】 %s", h.StoreName, h.ProductTitle))
	}
	return fmt.Sprintf("第%d次扫描到直营店有货，信息如下：\n%s", attempt, strings.Join(lines, "\n"))
}

// HeartbeatMessage reports that the loop is alive after attempt scans.
func HeartbeatMessage(attempt int) string {
	return fmt.Sprintf("已扫描%d次，扫描程序运作正常", attempt)
}

// ExceptionMessage reports a failed scan.
func ExceptionMessage(attempt int, err error) string {
	return fmt.Sprintf("第%d次扫描出现异常：%v", attempt, err)
}
