package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"
)

// 并发领取压测：同一玩家并发领取同一补偿，校验只成功一次
// 用法: go run ./tools/bench -token <用户令牌> -id <补偿ID> -c 50

type BenchStats struct {
	TotalRequests      int
	SuccessfulRequests int
	ConflictRequests   int
	FailedRequests     int
	TotalLatency       time.Duration
	MaxLatency         time.Duration
	MinLatency         time.Duration
	mu                 sync.Mutex
}

// Add 按业务码归类：0 成功，409 已领取，其余计为失败
func (s *BenchStats) Add(code int, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TotalRequests++
	switch code {
	case 0:
		s.SuccessfulRequests++
	case http.StatusConflict:
		s.ConflictRequests++
	default:
		s.FailedRequests++
	}
	s.TotalLatency += latency
	if latency > s.MaxLatency {
		s.MaxLatency = latency
	}
	if s.MinLatency == 0 || latency < s.MinLatency {
		s.MinLatency = latency
	}
}

type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func claim(client *http.Client, url, token string) (int, error) {
	req, err := http.NewRequest(http.MethodPost, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var body envelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	return body.Code, nil
}

func main() {
	base := flag.String("base", "http://localhost:8080", "服务地址")
	token := flag.String("token", "", "已绑定角色的用户令牌")
	id := flag.String("id", "", "补偿ID")
	concurrency := flag.Int("c", 20, "并发数")
	flag.Parse()

	if *token == "" || *id == "" {
		fmt.Println("必须指定 -token 和 -id")
		os.Exit(2)
	}

	url := fmt.Sprintf("%s/api/v1/player/compensations/%s/claim", *base, *id)
	fmt.Println("=== 并发领取测试开始 ===")
	fmt.Printf("目标: %s 并发: %d\n", url, *concurrency)

	client := &http.Client{Timeout: 8 * time.Second}
	stats := &BenchStats{}
	ready := make(chan struct{})
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ready
			begin := time.Now()
			code, err := claim(client, url, *token)
			if err != nil {
				code = -1
			}
			stats.Add(code, time.Since(begin))
		}()
	}
	close(ready)
	wg.Wait()

	took := time.Since(start)
	fmt.Println("\n=== 测试结果 ===")
	fmt.Printf("耗时: %v\n", took)
	fmt.Printf("总请求: %d 成功: %d 已领取: %d 失败: %d\n",
		stats.TotalRequests, stats.SuccessfulRequests, stats.ConflictRequests, stats.FailedRequests)
	if stats.TotalRequests > 0 {
		avg := stats.TotalLatency / time.Duration(stats.TotalRequests)
		fmt.Printf("延迟 平均: %v 最大: %v 最小: %v\n", avg, stats.MaxLatency, stats.MinLatency)
	}

	if stats.SuccessfulRequests > 1 {
		fmt.Println("\n错误: 同一补偿被重复领取")
		os.Exit(1)
	}
	fmt.Println("\n=== 测试完成 ===")
}
