package middleware

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"store-service/internal/config"

	"go.uber.org/zap"
)

// ServerInfo prints the startup banner and logs the same facts
func ServerInfo(cfg *config.Config, logger *zap.Logger) {
	hostname, _ := os.Hostname()
	goVersion := runtime.Version()
	numCPU := runtime.NumCPU()
	startTime := time.Now().Format("2006-01-02 15:04:05")
	base := "http://localhost:" + cfg.Server.Port

	scanner := "disabled"
	if cfg.Store.ReorderScanInterval > 0 {
		scanner = "every " + cfg.Store.ReorderScanInterval.String()
	}
	cache := "L1 only"
	if cfg.Cache.Disabled {
		cache = "disabled"
	} else if cfg.Store.Backend == config.BackendRedis {
		cache = "L1 + Redis"
	}

	fmt.Println("")
	fmt.Println("🏭 " + boldColor + "Store Service API" + resetColor)
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("📅 Started at: " + startTime)
	fmt.Println("🌐 Server URL: " + cyanColor + base + resetColor)
	fmt.Println("💻 Hostname: " + hostname)
	fmt.Println("🔧 Go Version: " + goVersion)
	fmt.Println("⚡ CPU Cores: " + fmt.Sprintf("%d", numCPU))
	fmt.Println("")
	fmt.Println("📊 " + boldColor + "Available Endpoints:" + resetColor)
	fmt.Println("   GET  " + greenColor + "/api/v1/stock" + resetColor + "                  - Stock ledger")
	fmt.Println("   POST " + blueColor + "/api/v1/stock/:id/adjust" + resetColor + "       - Add / reduce stock")
	fmt.Println("   POST " + blueColor + "/api/v1/requirements/derive" + resetColor + "    - Derive material requirements")
	fmt.Println("   POST " + blueColor + "/api/v1/work-orders" + resetColor + "            - Create work order")
	fmt.Println("   POST " + blueColor + "/api/v1/requests/:id/approve" + resetColor + "   - Approve material request")
	fmt.Println("   GET  " + greenColor + "/api/v1/consumption" + resetColor + "            - Consumption ledger")
	fmt.Println("   GET  " + greenColor + "/health" + resetColor + "                        - Health Check")
	fmt.Println("")
	fmt.Println("🔍 " + boldColor + "Monitoring:" + resetColor)
	fmt.Println("   📈 Metrics: " + cyanColor + base + "/api/v1/monitoring/metrics" + resetColor)
	fmt.Println("   📡 Events:  " + cyanColor + "ws://localhost:" + cfg.Server.Port + "/api/v1/events/ws" + resetColor)
	fmt.Println("")
	fmt.Println("⚙️  " + boldColor + "Environment:" + resetColor)
	fmt.Println("   🗄️  Backend: " + cfg.Store.Backend)
	fmt.Println("   🗃️  Cache: " + cache)
	fmt.Println("   🔁 Reorder scan: " + scanner)
	fmt.Println("   📝 Logging: Structured (Zap, " + cfg.Logging.Level + ")")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("✨ " + boldColor + "Server is ready to handle requests!" + resetColor)
	fmt.Println("")

	logger.Info("Server started successfully",
		zap.String("port", cfg.Server.Port),
		zap.String("hostname", hostname),
		zap.String("go_version", goVersion),
		zap.Int("cpu_cores", numCPU),
		zap.String("backend", cfg.Store.Backend),
		zap.String("reorder_scan", scanner),
		zap.String("start_time", startTime),
	)
}
