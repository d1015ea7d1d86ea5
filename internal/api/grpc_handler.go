package api

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"sales-dashboard-service/internal/domain"
)

// SalesServiceName is the fully-qualified gRPC service name.
const SalesServiceName = "sales.v1.SalesService"

// SalesServiceServer is the gRPC surface of the sales API. Requests and responses
// are google.protobuf.Struct values carrying the same keys and envelopes as the HTTP API.
type SalesServiceServer interface {
	QuerySales(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListFilterOptions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// SalesServiceDesc describes SalesServiceServer for grpc.Server.RegisterService.
var SalesServiceDesc = grpc.ServiceDesc{
	ServiceName: SalesServiceName,
	HandlerType: (*SalesServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "QuerySales", Handler: querySalesHandler},
		{MethodName: "ListFilterOptions", Handler: listFilterOptionsHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func querySalesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SalesServiceServer).QuerySales(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + SalesServiceName + "/QuerySales"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SalesServiceServer).QuerySales(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listFilterOptionsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SalesServiceServer).ListFilterOptions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + SalesServiceName + "/ListFilterOptions"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SalesServiceServer).ListFilterOptions(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// GRPCHandler implements SalesServiceServer on top of a SalesQuerier.
type GRPCHandler struct {
	sales  SalesQuerier
	logger *zap.Logger
}

// NewGRPCHandler creates a new GRPCHandler.
func NewGRPCHandler(sales SalesQuerier, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandler{sales: sales, logger: logger}
}

// --- Helper: Error Mapping ---
func mapServiceErrorToGrpcStatus(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// structValueString flattens a request value into the string form the filter
// compiler expects. Lists become comma-separated; numbers drop a trailing ".0".
func structValueString(v *structpb.Value) string {
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(kind.NumberValue, 'f', -1, 64)
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(kind.BoolValue)
	case *structpb.Value_ListValue:
		parts := make([]string, 0, len(kind.ListValue.GetValues()))
		for _, item := range kind.ListValue.GetValues() {
			if s := structValueString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}

func filterParamsFromStruct(req *structpb.Struct) domain.FilterParams {
	fields := req.GetFields()
	return filterParamsFromLookup(func(key string) []string {
		v, ok := fields[key]
		if !ok {
			return nil
		}
		if s := structValueString(v); s != "" {
			return []string{s}
		}
		return nil
	})
}

// toStruct converts a JSON-tagged response envelope into a Struct.
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- SalesService gRPC Methods Implementation ---

func (s *GRPCHandler) QuerySales(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	params := filterParamsFromStruct(req)
	s.logger.Debug("Received gRPC QuerySales request", zap.Any("params", params))

	page, err := s.sales.Query(ctx, params)
	if err != nil {
		s.logger.Error("gRPC QuerySales failed", zap.Error(err))
		return nil, mapServiceErrorToGrpcStatus(err)
	}
	out, err := toStruct(newSalesResponse(page))
	if err != nil {
		s.logger.Error("Failed to encode QuerySales response", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

func (s *GRPCHandler) ListFilterOptions(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	opts, err := s.sales.ListFilterOptions(ctx)
	if err != nil {
		s.logger.Error("gRPC ListFilterOptions failed", zap.Error(err))
		return nil, mapServiceErrorToGrpcStatus(err)
	}
	out, err := toStruct(FilterOptionsResponse{Success: true, Data: opts})
	if err != nil {
		s.logger.Error("Failed to encode ListFilterOptions response", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// UnaryLoggingInterceptor logs each unary call with its status code and latency.
func UnaryLoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("gRPC request",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		)
		return resp, err
	}
}

// NewGRPCServer builds a gRPC server exposing the sales service together with the
// standard health checking and reflection services.
func NewGRPCServer(handler SalesServiceServer, logger *zap.Logger) *grpc.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(UnaryLoggingInterceptor(logger)))

	s.RegisterService(&SalesServiceDesc, handler)
	logger.Info("SalesService gRPC service registered")

	healthServer := health.NewServer()
	healthServer.SetServingStatus(SalesServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	logger.Info("gRPC health check service registered")

	// Enable gRPC server reflection (useful for tools like grpcurl).
	reflection.Register(s)
	logger.Info("gRPC reflection service registered")

	return s
}
