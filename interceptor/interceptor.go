// Package interceptor holds the gRPC server interceptors.
package interceptor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor logs every RPC and converts handler panics into
// Internal errors.
type LoggingInterceptor struct {
	logger logrus.FieldLogger
}

func NewLoggingInterceptor(logger logrus.FieldLogger) *LoggingInterceptor {
	return &LoggingInterceptor{logger: logger}
}

func (i *LoggingInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		start := time.Now()
		defer func() {
			if p := recover(); p != nil {
				i.logger.WithField("method", info.FullMethod).WithField("panic", p).Error("gRPC handler panicked")
				err = status.Error(codes.Internal, "internal error")
			}
			i.log(info.FullMethod, start, err)
		}()

		return handler(ctx, req)
	}
}

func (i *LoggingInterceptor) Stream() grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		stream grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) (err error) {
		start := time.Now()
		defer func() {
			if p := recover(); p != nil {
				i.logger.WithField("method", info.FullMethod).WithField("panic", p).Error("gRPC stream panicked")
				err = status.Error(codes.Internal, "internal error")
			}
			i.log(info.FullMethod, start, err)
		}()

		return handler(srv, stream)
	}
}

func (i *LoggingInterceptor) log(method string, start time.Time, err error) {
	entry := i.logger.WithFields(logrus.Fields{
		"method":   method,
		"code":     status.Code(err).String(),
		"duration": time.Since(start).String(),
	})
	if err != nil && status.Code(err) != codes.Canceled {
		entry.WithError(err).Warn("gRPC request failed")
		return
	}
	entry.Debug("gRPC request")
}
