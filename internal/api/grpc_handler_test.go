package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"sales-dashboard-service/internal/domain"
	"sales-dashboard-service/internal/filter"
	"sales-dashboard-service/internal/sales"
	"sales-dashboard-service/internal/store"
)

const bufSize = 1024 * 1024

// dialTestServer starts a gRPC server for sq on an in-memory listener.
func dialTestServer(t *testing.T, sq SalesQuerier) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(bufSize)
	logger := zaptest.NewLogger(t)
	server := NewGRPCServer(NewGRPCHandler(sq, logger), logger)
	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func invoke(t *testing.T, conn *grpc.ClientConn, method string, req map[string]interface{}) (*structpb.Struct, error) {
	t.Helper()
	in, err := structpb.NewStruct(req)
	require.NoError(t, err)
	out := &structpb.Struct{}
	err = conn.Invoke(context.Background(), "/"+SalesServiceName+"/"+method, in, out)
	return out, err
}

func memoryBackedService(t *testing.T) *sales.Service {
	now := time.Date(2024, time.June, 30, 12, 0, 0, 0, time.UTC)
	records := make([]domain.Sale, 0, 15)
	for i := 0; i < 15; i++ {
		region := "North"
		if i%3 == 0 {
			region = "South"
		}
		records = append(records, domain.Sale{
			TransactionID: fmt.Sprintf("TXN-%02d", i),
			CustomerName:  fmt.Sprintf("Customer %02d", i),
			Region:        region,
			Category:      "Electronics",
			PaymentMethod: "UPI",
			Tags:          []string{"wireless"},
			Quantity:      1,
			TotalAmount:   50,
			Discount:      5,
			FinalAmount:   45,
			Date:          now.AddDate(0, 0, -i),
		})
	}
	m := store.NewMemoryStore(records)
	return sales.NewService(m, m, filter.NewCompiler(func() time.Time { return now }), zaptest.NewLogger(t))
}

func TestGRPC_QuerySales(t *testing.T) {
	conn := dialTestServer(t, memoryBackedService(t))

	out, err := invoke(t, conn, "QuerySales", map[string]interface{}{
		"region": []interface{}{"North"},
		"sortBy": "name_asc",
		"page":   2,
	})
	require.NoError(t, err)

	got := out.AsMap()
	assert.Equal(t, true, got["success"])
	assert.Equal(t, float64(10), got["count"])
	assert.Equal(t, float64(1), got["total_pages"])
	assert.Equal(t, float64(2), got["current_page"])
	assert.Empty(t, got["data"])
	assert.Equal(t, map[string]interface{}{"total_units": float64(10), "total_amount": float64(500), "total_discount": float64(50)}, got["stats"])
}

func TestGRPC_QuerySales_PageAsNumberOrString(t *testing.T) {
	conn := dialTestServer(t, memoryBackedService(t))

	asNumber, err := invoke(t, conn, "QuerySales", map[string]interface{}{"page": 1})
	require.NoError(t, err)
	asString, err := invoke(t, conn, "QuerySales", map[string]interface{}{"page": "1"})
	require.NoError(t, err)
	absent, err := invoke(t, conn, "QuerySales", map[string]interface{}{})
	require.NoError(t, err)

	assert.Equal(t, asNumber.AsMap(), asString.AsMap())
	assert.Equal(t, absent.AsMap(), asString.AsMap())
	assert.Len(t, asNumber.AsMap()["data"], 10)
}

func TestGRPC_ListFilterOptions(t *testing.T) {
	conn := dialTestServer(t, memoryBackedService(t))

	out, err := invoke(t, conn, "ListFilterOptions", nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"regions":        []interface{}{"North", "South"},
			"categories":     []interface{}{"Electronics"},
			"paymentMethods": []interface{}{"UPI"},
			"tags":           []interface{}{"wireless"},
		},
	}, out.AsMap())
}

func TestGRPC_ServiceErrorIsInternal(t *testing.T) {
	mockSales := new(MockSalesQuerier)
	mockSales.On("Query", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: %w", sales.ErrQueryFailed, errors.New("connection refused"))).Once()
	conn := dialTestServer(t, mockSales)

	_, err := invoke(t, conn, "QuerySales", map[string]interface{}{"region": "North"})
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Contains(t, st.Message(), "connection refused")
}

func TestGRPC_HealthCheck(t *testing.T) {
	conn := dialTestServer(t, new(MockSalesQuerier))

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: SalesServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestFilterParamsFromStruct(t *testing.T) {
	req, err := structpb.NewStruct(map[string]interface{}{
		"search":   "  neha ",
		"tags":     []interface{}{"organic", "", "wireless"},
		"page":     3.0,
		"age":      "46+",
		"gender":   nil,
		"ignored":  true,
		"category": []interface{}{},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.FilterParams{
		Search: "  neha ",
		Tags:   "organic,wireless",
		Page:   "3",
		Age:    "46+",
	}, filterParamsFromStruct(req))
}
