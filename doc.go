// Package bcpredict predicts whether a breast mass is benign or malignant
// from the 30 cell nuclei measurements of the Breast Cancer Wisconsin
// (Diagnostic) Data Set.
//
// The module is split into a training side and a serving side that share
// only the artifacts written to disk.
//
// # Training
//
// cmd/train loads the CSV (package dataset), standardises the full feature
// matrix (package preprocessing), splits it 80/20 with a fixed seed, fits a
// logistic regression (package sklearn/linear_model) and reports accuracy,
// per-class precision, recall and F1, ROC AUC and log loss (package
// metrics). The scaler and classifier are then written as gob artifacts
// together with a JSON weight export (package pipeline).
//
//	go run ./cmd/train -data data/data.csv -out artifacts
//
// # Serving
//
// cmd/serve loads the artifacts once (package inference) and serves a form
// of 30 sliders, a radar chart of the min-max normalised measurements
// (package chart) and the prediction with both class probabilities
// (package server). The page updates over a websocket; the same prediction
// is available as JSON:
//
//	curl -X POST localhost:8080/api/predict \
//	    -d '{"values":[17.99,10.38,122.8,1001,0.1184, ...]}'
//
// # Configuration
//
// Both commands read an optional YAML file given with -config, then BCP_*
// environment variables (package config). For example BCP_MODEL_DIR sets
// the artifact directory and BCP_MODEL_WATCH=true makes the server reload
// artifacts when train replaces them.
//
// The predictor is for educational use only and must not be used for
// medical decisions.
package bcpredict
