package main

import (
	"flag"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"peridot-indexer-sol/internal/config"
	"peridot-indexer-sol/internal/logic/core"
	"peridot-indexer-sol/internal/logic/grpc"
	"peridot-indexer-sol/internal/metrics"
	"peridot-indexer-sol/internal/pkg/logger"
	"peridot-indexer-sol/internal/service"
	"peridot-indexer-sol/internal/svc"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/zeromicro/go-zero/core/conf"
	zerosvc "github.com/zeromicro/go-zero/core/service"
)

var configFile = flag.String("f", "etc/grpc.yaml", "the config file")

func main() {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
			logger.Sync()
			os.Exit(1)
		}
	}()

	flag.Parse()

	var c config.GrpcConfig
	conf.MustLoad(*configFile, &c)
	logger.Init(c.LogConf.ToLogOption())
	defer logger.Sync()

	serviceContext, err := svc.NewGrpcServiceContext(c)
	if err != nil {
		panic(err)
	}
	defer serviceContext.Close()

	blockChan := make(chan *pb.SubscribeUpdateBlock, 200)
	backfillChan := make(chan *core.Block, 64)

	grpcService, err := grpc.NewGrpcStreamManager(serviceContext, blockChan)
	if err != nil {
		panic(err)
	}
	processor := grpc.NewBlockProcessor(serviceContext, blockChan, backfillChan)

	// 停止顺序与添加顺序一致：先断开数据源，再等待处理完成，最后刷写进度
	sg := zerosvc.NewServiceGroup()
	sg.Add(grpcService)

	if c.RpcEndpoint != "" {
		fetcher, err := service.NewRpcBlockFetcher(c.RpcEndpoint)
		if err != nil {
			panic(err)
		}
		backfill := service.NewBackfillService(fetcher, backfillChan)
		checker := grpc.NewSlotChecker(fetcher, backfill.Submit)
		processor.SetSlotChecker(checker)
		sg.Add(checker)
		sg.Add(backfill)
	}

	sg.Add(processor)
	sg.Add(serviceContext.ProgressManager)
	if c.Metrics.ListenAddr != "" {
		sg.Add(metrics.NewServer(c.Metrics.ListenAddr))
	}

	logger.Infof("Starting grpc stream service, endpoint=%s", c.Grpc.Endpoint)
	go sg.Start()

	// 等待退出信号
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Infof("Shutting down services...")
	sg.Stop()
}
