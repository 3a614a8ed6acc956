package feast

import (
	"context"
	"os"
	"reflect"
	"testing"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	"github.com/feast-dev/feast/sdk/go/protos/feast/types"
)

func TestGrpcClient_GetOnlineFeatures(t *testing.T) {
	endpoint := os.Getenv("FEAST_ENDPOINT")
	if endpoint == "" {
		t.Skip("FEAST_ENDPOINT not set")
	}
	client, err := NewGrpcClient(endpoint, os.Getenv("FEAST_PROJECT"))
	if err != nil {
		t.Fatalf("NewGrpcClient() error = %v", err)
	}
	defer client.Close()

	resp, err := client.GetOnlineFeatures(context.Background(), &GetOnlineFeaturesRequest{
		Features:   []string{"item_embeddings:embedding"},
		EntityRows: []map[string]any{{"item_id": int64(15970)}},
	})
	if err != nil {
		t.Fatalf("GetOnlineFeatures() error = %v", err)
	}
	if len(resp.FeatureVectors) != 1 {
		t.Errorf("got %d feature vectors, want 1", len(resp.FeatureVectors))
	}
}

func TestFromSDKValue(t *testing.T) {
	tests := []struct {
		name string
		in   *types.Value
		want any
	}{
		{"nil", nil, nil},
		{"string", feastsdk.StrVal("Topwear"), "Topwear"},
		{"int64", feastsdk.Int64Val(7), float64(7)},
		{"double", feastsdk.DoubleVal(0.5), 0.5},
		{"bool", feastsdk.BoolVal(true), true},
		{"double list", &types.Value{Val: &types.Value_DoubleListVal{DoubleListVal: &types.DoubleList{Val: []float64{1, 2}}}}, []float64{1, 2}},
		{"float list", &types.Value{Val: &types.Value_FloatListVal{FloatListVal: &types.FloatList{Val: []float32{0.5, 1}}}}, []float64{0.5, 1}},
		{"empty value", &types.Value{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fromSDKValue(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("fromSDKValue() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestToSDKValue(t *testing.T) {
	if got := toSDKValue(int64(3)).GetInt64Val(); got != 3 {
		t.Errorf("int64 = %d", got)
	}
	if got := toSDKValue(5).GetInt64Val(); got != 5 {
		t.Errorf("int = %d", got)
	}
	if got := toSDKValue("x").GetStringVal(); got != "x" {
		t.Errorf("string = %q", got)
	}
	if got := toSDKValue(struct{}{}).GetStringVal(); got != "{}" {
		t.Errorf("fallback = %q", got)
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		host string
		port int
	}{
		{"localhost:6565", "localhost", 6565},
		{"grpc://feast:7000", "feast", 7000},
		{"feast", "feast", 0},
		{"feast:abc", "feast:abc", 0},
	}
	for _, tt := range tests {
		host, port := ParseEndpoint(tt.in)
		if host != tt.host || port != tt.port {
			t.Errorf("ParseEndpoint(%q) = %q, %d; want %q, %d", tt.in, host, port, tt.host, tt.port)
		}
	}
}

func TestFeatureVector_Embedding(t *testing.T) {
	fv := FeatureVector{Values: map[string]any{"e": []float64{1, 2}, "s": "x", "empty": []float64{}}}
	if v, ok := fv.Embedding("e"); !ok || len(v) != 2 {
		t.Errorf("Embedding(e) = %v, %v", v, ok)
	}
	if _, ok := fv.Embedding("s"); ok {
		t.Error("string feature should not be an embedding")
	}
	if _, ok := fv.Embedding("empty"); ok {
		t.Error("empty list should not be an embedding")
	}
}
