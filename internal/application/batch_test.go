package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBatchRunFetchesDistinctSymbolsOnce(t *testing.T) {
	pr := &fakePriceRepo{}
	fp := &fakeProvider{}
	b := &BatchProcessor{Provider: fp, Prices: pr, Interval: "1day"}

	err := b.Run(context.Background(), []string{"AAPL", "MSFT", "AAPL"})
	require.NoError(t, err)
	require.Equal(t, 2, fp.fetchCount())
	require.Len(t, pr.ignored, 2)
}

func TestBatchRunPropagatesFetchError(t *testing.T) {
	fetchErr := errors.New("provider down")
	b := &BatchProcessor{Provider: &fakeProvider{err: fetchErr}, Prices: &fakePriceRepo{}}

	err := b.Run(context.Background(), []string{"AAPL"})
	require.ErrorIs(t, err, fetchErr)
}

func TestBatchRunPropagatesUpsertError(t *testing.T) {
	b := &BatchProcessor{Provider: &fakeProvider{}, Prices: &fakePriceRepo{err: ErrRepo}}

	err := b.Run(context.Background(), []string{"AAPL"})
	require.ErrorIs(t, err, ErrRepo)
}

func TestBatchRunNoSymbols(t *testing.T) {
	fp := &fakeProvider{}
	b := &BatchProcessor{Provider: fp, Prices: &fakePriceRepo{}}

	require.NoError(t, b.Run(context.Background(), nil))
	require.Zero(t, fp.fetchCount())
}
