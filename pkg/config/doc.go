// Configuration files are YAML:
//
//	engine:
//	  pipeline: models/churn.yaml
//	transfer:
//	  batch_size: 0          # 0 = derive from input size
//	  missing_columns: error # or skip
//	input:
//	  location: s3://scoring/in/${RUN_DATE}.csv.gz
//	  aws_region: eu-west-1
//	output:
//	  location: scores.csv.zst
//	logging:
//	  level: info
//	  format: console
//	metrics:
//	  enabled: true
//	  address: ":9090"
//	tracing:
//	  enabled: false
//
// Values of the form ${VAR_NAME} are replaced with environment variables
// before parsing. Every key can also be overridden with an environment
// variable named MOJO_ followed by the upper-cased key path, for example
// MOJO_LOGGING_LEVEL=debug.
package config
