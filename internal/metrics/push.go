package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Push はレジストリの内容をPushgatewayへ送信する。
// 同じ job・command の組み合わせの前回値は置き換えられる。
func Push(ctx context.Context, gatewayURL, job, command string, gatherer prometheus.Gatherer) error {
	pusher := push.New(gatewayURL, job).
		Gatherer(gatherer).
		Grouping("command", command)

	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("Pushgatewayへの送信に失敗しました: %w", err)
	}
	return nil
}
