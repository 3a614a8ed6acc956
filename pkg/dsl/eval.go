// Package dsl 是基于 CEL 的候选过滤表达式解释器。
//
// 可用变量：
//   - item：商品属性，如 item.season == "Summer"、item.year >= 2015、item.subCategory in ["Topwear"]
//   - label：候选上的 label 值，如 label.recall_source == "embedding"
//   - similarity / novelty / diversity / score：当前打分（尚未打分时为 0）
//
// 示例：
//   - `item.usage == "Casual" && item.baseColour != "Black"`
//   - `similarity > 0.2`
package dsl

import (
	"fmt"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/cel-go/cel"

	"github.com/rushteam/wardrobe/core"
)

// MaxPrograms 是已编译程序缓存的容量上限，表达式可能来自请求，需要有界。
const MaxPrograms = 1024

var (
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once

	// 已编译程序缓存：expr -> cel.Program，cel.Program 可并发执行
	programs *ristretto.Cache[string, cel.Program]
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		programs, celEnvErr = ristretto.NewCache(&ristretto.Config[string, cel.Program]{
			NumCounters: MaxPrograms * 10,
			MaxCost:     MaxPrograms,
			BufferItems: 64,
		})
		if celEnvErr != nil {
			return
		}
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.MapType(cel.StringType, cel.DynType)),
			cel.Variable("label", cel.MapType(cel.StringType, cel.StringType)),
			cel.Variable("similarity", cel.DoubleType),
			cel.Variable("novelty", cel.DoubleType),
			cel.Variable("diversity", cel.DoubleType),
			cel.Variable("score", cel.DoubleType),
		)
	})
	return celEnv, celEnvErr
}

// Compile 编译表达式并缓存（最多 MaxPrograms 条），返回的程序要求输出 bool。
func Compile(expr string) (cel.Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: init env: %w", err)
	}
	if prg, ok := programs.Get(expr); ok {
		return prg, nil
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile %q: %w", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("dsl: expression %q must return bool, got %s", expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program %q: %w", expr, err)
	}
	programs.Set(expr, prg, 1)
	programs.Wait()
	return prg, nil
}

// Eval 对单个候选执行表达式。空表达式恒为 true。
func Eval(expr string, c *core.Candidate) (bool, error) {
	if expr == "" {
		return true, nil
	}
	prg, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return Run(prg, c)
}

// Run 用已编译的程序判断候选。
func Run(prg cel.Program, c *core.Candidate) (bool, error) {
	out, _, err := prg.Eval(buildInput(c))
	if err != nil {
		return false, fmt.Errorf("dsl: eval: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression must return bool, got %T", out.Value())
	}
	return result, nil
}

func buildInput(c *core.Candidate) map[string]any {
	labels := make(map[string]string, len(c.Labels))
	for k, v := range c.Labels {
		labels[k] = v.Value
	}
	var item map[string]any
	if c.Item != nil {
		item = c.Item.Attributes()
	} else {
		item = map[string]any{}
	}
	return map[string]any{
		"item":       item,
		"label":      labels,
		"similarity": c.Similarity,
		"novelty":    c.Novelty,
		"diversity":  c.Diversity,
		"score":      c.Score,
	}
}
