//go:generate mockgen -source=../message_provider.go -destination=./mock_message_provider.go -package=mocks
//go:generate mockgen -source=../processor.go        -destination=./mock_processor.go        -package=mocks
//go:generate mockgen -source=../publisher.go        -destination=./mock_publisher.go        -package=mocks
//go:generate mockgen -source=../observer.go         -destination=./mock_observer.go         -package=mocks
//go:generate mockgen -source=../journal_writer.go   -destination=./mock_journal_writer.go   -package=mocks

package mocks
