package result

import "github.com/signalnine/tspselect/internal/eval"

type FoldMeta struct {
	Fold       int      `json:"fold"`
	Loss       string   `json:"loss"`
	Algorithms []string `json:"algorithms"`
	Baseline   string   `json:"baseline"`
	Train      int      `json:"train_instances"`
	Val        int      `json:"val_instances"`
	DurationS  int      `json:"duration_s"`
	Epochs     []Epoch  `json:"epochs"`
	Best       Best     `json:"best"`
	// Final holds the validation metrics after the last epoch.
	Final eval.Metrics `json:"final"`
}

type Epoch struct {
	Epoch        int          `json:"epoch"`
	LearningRate float64      `json:"learning_rate"`
	TrainLoss    float64      `json:"train_loss"`
	TrainAcc     float64      `json:"train_accuracy"`
	Val          eval.Metrics `json:"val"`
}

// Best records best-ever validation values across epochs, each with the
// epoch it was reached in.
type Best struct {
	Accuracy         float64 `json:"accuracy"`
	AccuracyEpoch    int     `json:"accuracy_epoch"`
	Predicted        float64 `json:"predicted_runtime"`
	PredictedEpoch   int     `json:"predicted_epoch"`
	Ratio            float64 `json:"ratio"`
	ImproveRate      float64 `json:"improve_rate"`
	ImproveRateEpoch int     `json:"improve_rate_epoch"`
}

// CVSummary averages fold results once every fold has finished.
type CVSummary struct {
	Folds           int     `json:"folds"`
	Loss            string  `json:"loss"`
	MeanAccuracy    float64 `json:"mean_best_accuracy"`
	MeanRatio       float64 `json:"mean_best_ratio"`
	MeanImproveRate float64 `json:"mean_best_improve_rate"`
	Predicted       float64 `json:"total_best_predicted_runtime"`
	VirtualBest     float64 `json:"total_virtual_best_runtime"`
	SingleBest      float64 `json:"total_single_best_runtime"`
}
