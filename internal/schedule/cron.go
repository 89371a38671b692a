// Package schedule はリマインダー時刻の cron 式への変換と、
// ワークフロー定義ファイルの cron 書き換えを提供する。
package schedule

import (
	"bytes"
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // 実行環境にタイムゾーンDBがなくても LoadLocation できるようにする

	"gopkg.in/yaml.v3"
)

// ToUTCCron はローカル時刻（HH:MM）とIANAタイムゾーン名を、
// UTCの日次 cron 式 "<分> <時> * * *" に変換する。
// 夏時間のオフセットは now 時点のそのタイムゾーンの日付で決まる。
func ToUTCCron(hhmm, zone string, now time.Time) (string, error) {
	clock, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", fmt.Errorf("時刻のパースに失敗しました: %q: %w", hhmm, err)
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return "", fmt.Errorf("タイムゾーンの読み込みに失敗しました: %q: %w", zone, err)
	}

	local := now.In(loc)
	at := time.Date(local.Year(), local.Month(), local.Day(), clock.Hour(), clock.Minute(), 0, 0, loc).UTC()
	return fmt.Sprintf("%d %d * * *", at.Minute(), at.Hour()), nil
}

// RewriteWorkflowCron はワークフローYAML内のすべての cron キーの値を cron に置き換える。
// 値の引用符スタイルは保持される。内容が変わらない場合はファイルを書き込まない。
// 戻り値は見つかった cron キーの数。
func RewriteWorkflowCron(path, cron string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("ワークフローファイルの読み込みに失敗しました: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("ワークフローファイルのパースに失敗しました: %w", err)
	}

	found, changed := rewriteCron(&doc, cron)
	if !changed {
		return found, nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return found, fmt.Errorf("ワークフローファイルのエンコードに失敗しました: %w", err)
	}
	if err := enc.Close(); err != nil {
		return found, fmt.Errorf("ワークフローファイルのエンコードに失敗しました: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), info.Mode().Perm()); err != nil {
		return found, fmt.Errorf("ワークフローファイルの書き込みに失敗しました: %w", err)
	}
	return found, nil
}

func rewriteCron(n *yaml.Node, cron string) (found int, changed bool) {
	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if key.Value == "cron" && val.Kind == yaml.ScalarNode {
				found++
				if val.Value != cron {
					val.Value = cron
					changed = true
				}
				continue
			}
			f, c := rewriteCron(val, cron)
			found += f
			changed = changed || c
		}
		return found, changed
	}

	for _, child := range n.Content {
		f, c := rewriteCron(child, cron)
		found += f
		changed = changed || c
	}
	return found, changed
}
