// Package metrics は分類モデルの評価指標を提供する
package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/bcpredict/pkg/errors"
)

// logLossEps は log(0) を避けるためのクリッピング幅
const logLossEps = 1e-15

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "nil vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

func checkBinaryLabels(op string, y *mat.VecDense) error {
	for i := 0; i < y.Len(); i++ {
		if v := y.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError(op, fmt.Sprintf("labels must be 0 or 1, got %v", v))
		}
	}
	return nil
}

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率（1 - 正解率）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// ConfusionMatrix は混同行列を計算する。行が正解ラベル、列が予測ラベルで、
// 並び順は labels に従う。labels に含まれないサンプルは無視する。
func ConfusionMatrix(yTrue, yPred *mat.VecDense, labels []float64) (*mat.Dense, error) {
	n, err := checkPair("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		labels = uniqueLabels(yTrue, yPred)
	}

	index := make(map[float64]int, len(labels))
	for i, l := range labels {
		if _, dup := index[l]; dup {
			return nil, errors.NewValueError("ConfusionMatrix", fmt.Sprintf("duplicate label %v", l))
		}
		index[l] = i
	}

	cm := mat.NewDense(len(labels), len(labels), nil)
	for i := 0; i < n; i++ {
		t, okT := index[yTrue.AtVec(i)]
		p, okP := index[yPred.AtVec(i)]
		if !okT || !okP {
			continue
		}
		cm.Set(t, p, cm.At(t, p)+1)
	}
	return cm, nil
}

func uniqueLabels(vs ...*mat.VecDense) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for _, v := range vs {
		for i := 0; i < v.Len(); i++ {
			if l := v.AtVec(i); !seen[l] {
				seen[l] = true
				out = append(out, l)
			}
		}
	}
	sort.Float64s(out)
	return out
}

// PrecisionRecallFScore は label を陽性とみなしたときの適合率・再現率・F1値と
// サポート数（正解が label のサンプル数）を計算する。
// 分母が 0 の指標は 0 とし、UndefinedMetricWarning を発行する。
func PrecisionRecallFScore(yTrue, yPred *mat.VecDense, label float64) (precision, recall, f1 float64, support int, err error) {
	n, err := checkPair("PrecisionRecallFScore", yTrue, yPred)
	if err != nil {
		return 0, 0, 0, 0, err
	}

	var tp, fp, fn int
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i) == label
		p := yPred.AtVec(i) == label
		switch {
		case t && p:
			tp++
		case p:
			fp++
		case t:
			fn++
		}
	}
	support = tp + fn

	precision = ratio("precision", fmt.Sprintf("no predicted samples for label %v", label), tp, tp+fp)
	recall = ratio("recall", fmt.Sprintf("no true samples for label %v", label), tp, tp+fn)
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return precision, recall, f1, support, nil
}

func ratio(metric, condition string, num, den int) float64 {
	if den == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning(metric, condition, 0))
		return 0
	}
	return float64(num) / float64(den)
}

// ClassReport は1クラス分の評価結果
type ClassReport struct {
	Name      string  `json:"name"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report は分類レポート（scikit-learn の classification_report 相当）
type Report struct {
	Accuracy    float64       `json:"accuracy"`
	Classes     []ClassReport `json:"classes"`
	MacroAvg    ClassReport   `json:"macro_avg"`
	WeightedAvg ClassReport   `json:"weighted_avg"`
	Support     int           `json:"support"`
}

// ClassificationReport はクラスごとの適合率・再現率・F1値と、
// マクロ平均・重み付き平均をまとめたレポートを作成する。
// names は labels と同じ長さで表示名を与える（省略時はラベル値）。
func ClassificationReport(yTrue, yPred *mat.VecDense, labels []float64, names []string) (*Report, error) {
	n, err := checkPair("ClassificationReport", yTrue, yPred)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		labels = uniqueLabels(yTrue, yPred)
	}
	if len(names) != 0 && len(names) != len(labels) {
		return nil, errors.NewDimensionError("ClassificationReport", len(labels), len(names), 0)
	}

	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Accuracy: acc,
		Classes:  make([]ClassReport, len(labels)),
		Support:  n,
	}
	report.MacroAvg.Name = "macro avg"
	report.WeightedAvg.Name = "weighted avg"

	for i, label := range labels {
		p, r, f, s, err := PrecisionRecallFScore(yTrue, yPred, label)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprint(label)
		if len(names) != 0 {
			name = names[i]
		}
		report.Classes[i] = ClassReport{Name: name, Precision: p, Recall: r, F1: f, Support: s}

		k := float64(len(labels))
		report.MacroAvg.Precision += p / k
		report.MacroAvg.Recall += r / k
		report.MacroAvg.F1 += f / k

		w := float64(s) / float64(n)
		report.WeightedAvg.Precision += p * w
		report.WeightedAvg.Recall += r * w
		report.WeightedAvg.F1 += f * w
	}
	report.MacroAvg.Support = n
	report.WeightedAvg.Support = n

	return report, nil
}

// String はレポートを scikit-learn と同じ表形式で整形する
func (r *Report) String() string {
	width := len("weighted avg")
	for _, c := range r.Classes {
		if len(c.Name) > width {
			width = len(c.Name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	for _, c := range r.Classes {
		fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, c.Name, c.Precision, c.Recall, c.F1, c.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s %9s %9s %9.2f %9d\n", width, "accuracy", "", "", r.Accuracy, r.Support)
	for _, avg := range []ClassReport{r.MacroAvg, r.WeightedAvg} {
		fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, avg.Name, avg.Precision, avg.Recall, avg.F1, avg.Support)
	}
	return b.String()
}

// BinaryLogLoss は2値分類の対数損失を計算する。yPred は陽性クラスの確率。
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		p := errors.ClipValue(yPred.AtVec(i), logLossEps, 1-logLossEps)
		if yTrue.AtVec(i) == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}

// AUC はROC曲線下面積を Mann-Whitney の U 統計量として計算する。
// 同順位のスコアは 0.5 として数える。片方のクラスしか存在しない場合は
// 未定義のため 0.5 を返し、UndefinedMetricWarning を発行する。
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels("AUC", yTrue); err != nil {
		return 0, err
	}

	type pair struct {
		score float64
		label float64
	}
	pairs := make([]pair, n)
	for i := range pairs {
		pairs[i] = pair{score: yPred.AtVec(i), label: yTrue.AtVec(i)}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score < pairs[j].score })

	// 平均順位による順位和
	var rankSum float64
	var nPos int
	for i := 0; i < n; {
		j := i
		for j < n && pairs[j].score == pairs[i].score {
			j++
		}
		avgRank := float64(i+j+1) / 2 // 1始まりの順位 i+1..j の平均
		for k := i; k < j; k++ {
			if pairs[k].label == 1 {
				rankSum += avgRank
				nPos++
			}
		}
		i = j
	}

	nNeg := n - nPos
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("AUC", "only one class present in y_true", 0.5))
		return 0.5, nil
	}

	u := rankSum - float64(nPos*(nPos+1))/2
	return u / float64(nPos*nNeg), nil
}

// AUCMatrix は行列形式の入力に対してAUCを計算する（先頭列を使用）
func AUCMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	yt, err := firstColumn("AUCMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	yp, err := firstColumn("AUCMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return AUC(yt, yp)
}

func firstColumn(op string, m mat.Matrix) (*mat.VecDense, error) {
	if m == nil {
		return nil, errors.NewValueError(op, "nil matrix")
	}
	if d, ok := m.(*mat.Dense); ok && d.IsEmpty() {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	return mat.NewVecDense(r, mat.Col(nil, 0, m)), nil
}
