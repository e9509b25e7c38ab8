package processor

import (
	"context"
	"os"
	"path/filepath"

	"github.com/borderwatch/preprocessor/common"
	"github.com/borderwatch/preprocessor/roi"
	"github.com/borderwatch/preprocessor/service"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Processor", func() {
	var (
		ctx       context.Context
		processor *Processor
		outDir    string
		region    roi.ROI
		key       common.GranuleKey
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		outDir, err = os.MkdirTemp("", "processed")
		Expect(err).NotTo(HaveOccurred())
		storage, err := service.NewStorageStrategy(ctx, outDir)
		Expect(err).NotTo(HaveOccurred())
		config := DefaultConfig()
		config.Workdir = outDir
		processor = NewProcessor(config, storage)
		region = roi.ROI{Name: "wakhan_corridor"}
		key = common.GranuleKey{
			ProductID: "S2B_MSIL1C_20200806T054639_N0209_R048_T43SCS_20200806T080252.SAFE",
			GranuleID: "L1C_T43SCS_A017828_20200806T055605",
		}
	})

	AfterEach(func() {
		os.RemoveAll(outDir)
	})

	Describe("naming the output", func() {
		It("strips the product extensions", func() {
			path := outputPath(region, common.Sentinel2, key)
			Expect(path).To(Equal(filepath.Join("wakhan_corridor", "SENTINEL-2",
				"S2B_MSIL1C_20200806T054639_N0209_R048_T43SCS_20200806T080252_L1C_T43SCS_A017828_20200806T055605_preprocessed.tif")))
		})

		It("strips the COG product suffix", func() {
			cogKey := common.GranuleKey{
				ProductID: "S1A_IW_GRDH_1SDV_20200806T011353_20200806T011418_033766_03E9C9_D56D_COG.SAFE",
				GranuleID: "s1a-iw-grd-vv-20200806t011353-20200806t011418-033766-03e9c9-001",
			}
			path := outputPath(region, common.Sentinel1, cogKey)
			Expect(path).To(Equal(filepath.Join("wakhan_corridor", "SENTINEL-1",
				"S1A_IW_GRDH_1SDV_20200806T011353_20200806T011418_033766_03E9C9_D56D_s1a-iw-grd-vv-20200806t011353-20200806t011418-033766-03e9c9-001_preprocessed.tif")))
		})
	})

	Describe("processing a granule", func() {
		Context("when the output already exists", func() {
			BeforeEach(func() {
				existing := filepath.Join(outDir, outputPath(region, common.Sentinel2, key))
				Expect(os.MkdirAll(filepath.Dir(existing), 0766)).To(Succeed())
				Expect(os.WriteFile(existing, []byte("tif"), 0666)).To(Succeed())
			})

			It("skips without touching the inputs", func() {
				granule := common.Granule{Key: key, Bands: []common.BandFile{
					{Role: common.Spectral, ID: "B04", Path: "/nonexistent/B04.jp2"},
				}}
				result := processor.ProcessGranule(ctx, region, common.Sentinel2, granule)
				Expect(result.Status).To(Equal(common.StatusSKIPPED))
				Expect(result.Message).To(Equal("already processed"))
			})
		})

		Context("when the granule has no usable band", func() {
			It("fails", func() {
				granule := common.Granule{Key: key}
				result := processor.ProcessGranule(ctx, region, common.Sentinel2, granule)
				Expect(result.Status).To(Equal(common.StatusFAILED))
				Expect(result.Message).To(ContainSubstring("no spectral band"))
			})
		})

		Context("when the constellation is not handled", func() {
			It("fails", func() {
				granule := common.Granule{Key: key}
				result := processor.ProcessGranule(ctx, region, common.Unknown, granule)
				Expect(result.Status).To(Equal(common.StatusFAILED))
			})
		})
	})
})
