package sealevel

import "k8s.io/klog/v2"

type Logger interface {
	Log(s string)
}

// LogRecorder collects program log lines in order.
type LogRecorder struct {
	Logs []string
}

func (r *LogRecorder) Log(s string) {
	klog.V(4).Info(s)
	r.Logs = append(r.Logs, s)
}
