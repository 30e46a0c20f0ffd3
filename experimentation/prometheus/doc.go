// Package prometheus provides a core.Experimentation backend that exposes
// logged values as Prometheus series so runs can be scraped and charted next
// to service metrics.
//
// Series (namespace defaults to "mlfabric"):
//
//	<ns>_metric{experiment,run_id,key}       last logged value
//	<ns>_metric_step{experiment,run_id,key}  step of the last stepped value
//	<ns>_param_info{experiment,run_id,key,value} constant 1
//	<ns>_run_active{experiment,run_id}       1 while the run is open
//	<ns>_runs_started_total{experiment}
//
// Prometheus cannot hold binary data, so images go to an artifact store.
package prometheus
