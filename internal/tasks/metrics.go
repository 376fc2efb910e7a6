package tasks

import "github.com/prometheus/client_golang/prometheus"

var (
	tasksGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "minitodo_tasks",
			Help: "Number of tasks in the store by state",
		},
		[]string{"state"},
	)

	taskOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minitodo_task_operations_total",
			Help: "Store mutations that changed the task list",
		},
		[]string{"op"},
	)

	persistFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "minitodo_persist_failures_total",
			Help: "Snapshot writes that failed",
		},
	)
)

func init() {
	prometheus.MustRegister(tasksGauge, taskOperationsTotal, persistFailuresTotal)
}

func observeSummary(s Summary) {
	tasksGauge.WithLabelValues("total").Set(float64(s.Total))
	tasksGauge.WithLabelValues("completed").Set(float64(s.Completed))
	tasksGauge.WithLabelValues("active").Set(float64(s.Total - s.Completed))
}
